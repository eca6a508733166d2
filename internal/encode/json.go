package encode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/John-Robertt/mvconv/internal/domain"
)

type movieJSON struct {
	Movie []map[string]any `json:"Movie"`
}

// JSON 把 Movie 列表编码为 [{"Movie": [{"Title": ..}, ..]}, ..]。
//
// 规则：
// - 每个字段是单键对象，顺序由 Movie.Fields 决定（输出字节稳定）
// - Year 按变体输出为数字或字符串
// - 2 空格缩进；非 ASCII 原样输出（UTF-8），不做 HTML 转义；末尾换行
func JSON(movies []domain.Movie) ([]byte, error) {
	doc := make([]movieJSON, 0, len(movies))
	for _, m := range movies {
		fs := m.Fields()
		mj := movieJSON{Movie: make([]map[string]any, 0, len(fs))}
		for _, f := range fs {
			mj.Movie = append(mj.Movie, map[string]any{f.Kind.String(): fieldValue(f)})
		}
		doc = append(doc, mj)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fieldValue(f domain.Field) any {
	switch f.Kind {
	case domain.FieldDirector:
		return map[string]string{"Name": f.Text}
	case domain.FieldYear:
		if v, ok := f.Year.Int(); ok {
			return v
		}
		return f.Year.String()
	default:
		return f.Text
	}
}

// DecodeJSON 读取 JSON 产出的结构（用于对已有 Movies.json 重新排序）。
//
// 未知键忽略；Year 为整数时还原为整数变体，为字符串时还原为文本变体。
func DecodeJSON(b []byte) ([]domain.Movie, error) {
	var doc []struct {
		Movie []map[string]json.RawMessage `json:"Movie"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.Movie, 0, len(doc))
	for i, d := range doc {
		var m domain.Movie
		for _, obj := range d.Movie {
			if err := applyField(&m, obj); err != nil {
				return nil, fmt.Errorf("第 %d 个 Movie：%w", i+1, err)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// applyField 按固定字段顺序处理单个对象，避免 map 迭代顺序影响结果。
func applyField(m *domain.Movie, obj map[string]json.RawMessage) error {
	for _, kind := range []domain.FieldKind{domain.FieldTitle, domain.FieldGenre, domain.FieldDirector, domain.FieldStudio, domain.FieldYear} {
		raw, ok := obj[kind.String()]
		if !ok {
			continue
		}
		switch kind {
		case domain.FieldDirector:
			var d struct {
				Name string `json:"Name"`
			}
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("Director 无效：%w", err)
			}
			m.Directors = append(m.Directors, domain.Director{Name: d.Name})
		case domain.FieldYear:
			y, err := decodeYear(raw)
			if err != nil {
				return err
			}
			m.Year = y
		default:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%s 必须是字符串：%w", kind, err)
			}
			switch kind {
			case domain.FieldTitle:
				m.Title = domain.Some(s)
			case domain.FieldGenre:
				m.Genre = domain.Some(s)
			case domain.FieldStudio:
				m.Studio = domain.Some(s)
			}
		}
	}
	return nil
}

func decodeYear(raw json.RawMessage) (domain.Year, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.Year{}, fmt.Errorf("Year 无效：%w", err)
		}
		return domain.YearText(s), nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return domain.Year{}, errors.New("Year 必须是整数或字符串，实际是 " + string(raw))
	}
	return domain.YearInt(v), nil
}
