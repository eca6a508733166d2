package domain

import (
	"fmt"
	"strings"
)

// FieldKind 枚举五种已知字段；同时作为排序键（SortKey）。
type FieldKind uint8

const (
	FieldTitle FieldKind = iota + 1
	FieldGenre
	FieldDirector
	FieldStudio
	FieldYear
)

// SortKey 是排序键；取值与 FieldKind 一致。
type SortKey = FieldKind

// DefaultSortKey 为默认排序键。
const DefaultSortKey = FieldTitle

// String 返回字段在 JSON/XML 中使用的名字。
func (k FieldKind) String() string {
	switch k {
	case FieldTitle:
		return "Title"
	case FieldGenre:
		return "Genre"
	case FieldDirector:
		return "Director"
	case FieldStudio:
		return "Studio"
	case FieldYear:
		return "Year"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// InputKey 把输入文本中的行键映射为字段；注意导演的输入键是 "Director Name"。
// 精确匹配（区分大小写），未知键返回 ok=false。
func InputKey(key string) (FieldKind, bool) {
	switch key {
	case "Title":
		return FieldTitle, true
	case "Genre":
		return FieldGenre, true
	case "Director Name":
		return FieldDirector, true
	case "Studio":
		return FieldStudio, true
	case "Year":
		return FieldYear, true
	default:
		return 0, false
	}
}

// ParseSortKey 解析 CLI/配置中的排序键（不区分大小写）。
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return FieldTitle, nil
	case "genre":
		return FieldGenre, nil
	case "director":
		return FieldDirector, nil
	case "studio":
		return FieldStudio, nil
	case "year":
		return FieldYear, nil
	case "":
		return 0, fmt.Errorf("排序键不能为空")
	default:
		return 0, fmt.Errorf("排序键只能是 Title|Genre|Director|Studio|Year，实际是 %q", s)
	}
}
