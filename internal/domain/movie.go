package domain

import "strconv"

// Opt 是“显式赋值”的可选字符串。
//
// 约束：是否输出只看 Set，不看值本身（空串也是合法取值）。
type Opt struct {
	Value string
	Set   bool
}

// Some 构造一个已赋值的 Opt。
func Some(v string) Opt { return Opt{Value: v, Set: true} }

type Director struct {
	Name string
}

// Year 是年份的标记联合：能解析为十进制整数时为 Int，否则保留原文 Text。
type Year struct {
	kind yearKind
	i    int64
	s    string
}

type yearKind uint8

const (
	yearUnset yearKind = iota
	yearInt
	yearText
)

func YearInt(v int64) Year   { return Year{kind: yearInt, i: v} }
func YearText(s string) Year { return Year{kind: yearText, s: s} }

// ParseYear 尝试把原文解析为整数；失败时保留原文（不是错误）。
func ParseYear(raw string) Year {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return YearInt(v)
	}
	return YearText(raw)
}

func (y Year) IsSet() bool  { return y.kind != yearUnset }
func (y Year) IsInt() bool  { return y.kind == yearInt }
func (y Year) IsText() bool { return y.kind == yearText }

// Int 返回整数值；仅当 IsInt 时 ok=true。
func (y Year) Int() (int64, bool) { return y.i, y.kind == yearInt }

// String 返回文本形态（XML 输出统一用它）。
func (y Year) String() string {
	switch y.kind {
	case yearInt:
		return strconv.FormatInt(y.i, 10)
	case yearText:
		return y.s
	default:
		return ""
	}
}

// Movie 是一个文本块解析出的结构化记录。构造后只读。
type Movie struct {
	Title     Opt
	Genre     Opt
	Directors []Director
	Studio    Opt
	Year      Year
}

// Field 是 Movie 输出列表中的单个字段（单键对象）。
type Field struct {
	Kind FieldKind
	Text string // Title/Genre/Studio/Director(Name)
	Year Year   // 仅 Kind==FieldYear
}

// Fields 按固定顺序返回已赋值的字段：Title, Genre, Director..., Studio, Year。
// 两种序列化都通过它投影，保证 JSON 与 XML 字段顺序一致。
func (m Movie) Fields() []Field {
	out := make([]Field, 0, 4+len(m.Directors))
	if m.Title.Set {
		out = append(out, Field{Kind: FieldTitle, Text: m.Title.Value})
	}
	if m.Genre.Set {
		out = append(out, Field{Kind: FieldGenre, Text: m.Genre.Value})
	}
	for _, d := range m.Directors {
		out = append(out, Field{Kind: FieldDirector, Text: d.Name})
	}
	if m.Studio.Set {
		out = append(out, Field{Kind: FieldStudio, Text: m.Studio.Value})
	}
	if m.Year.IsSet() {
		out = append(out, Field{Kind: FieldYear, Year: m.Year})
	}
	return out
}

// Lookup 返回 Movie 中第一个 kind 字段（Director 取第一位导演）。
func (m Movie) Lookup(kind FieldKind) (Field, bool) {
	for _, f := range m.Fields() {
		if f.Kind == kind {
			return f, true
		}
	}
	return Field{}, false
}
