package sorter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/John-Robertt/mvconv/internal/domain"
)

// Sort 按 key 稳定排序，返回新切片（不修改输入）。
//
// 比较规则：
// - 字符串键（Title/Genre/Director/Studio）：strings.ToLower 后按码点比较；缺失视为空串
// - Director 取第一位导演
// - Year：缺失 < 整数（按数值）< 文本（按字节，不做规范化）
func Sort(movies []domain.Movie, key domain.SortKey) []domain.Movie {
	out := slices.Clone(movies)
	if out == nil {
		out = []domain.Movie{}
	}
	slices.SortStableFunc(out, func(a, b domain.Movie) int {
		return Compare(a, b, key)
	})
	return out
}

// Compare 返回 a 与 b 在 key 下的三路比较结果。
func Compare(a, b domain.Movie, key domain.SortKey) int {
	if key == domain.FieldYear {
		return compareYear(yearOf(a), yearOf(b))
	}
	return strings.Compare(textOf(a, key), textOf(b, key))
}

func textOf(m domain.Movie, key domain.SortKey) string {
	f, ok := m.Lookup(key)
	if !ok {
		return ""
	}
	return strings.ToLower(f.Text)
}

func yearOf(m domain.Movie) domain.Year {
	f, ok := m.Lookup(domain.FieldYear)
	if !ok {
		return domain.Year{}
	}
	return f.Year
}

func compareYear(a, b domain.Year) int {
	if r := cmp.Compare(yearRank(a), yearRank(b)); r != 0 {
		return r
	}
	if ai, ok := a.Int(); ok {
		bi, _ := b.Int()
		return cmp.Compare(ai, bi)
	}
	return strings.Compare(a.String(), b.String())
}

func yearRank(y domain.Year) int {
	switch {
	case !y.IsSet():
		return 0
	case y.IsInt():
		return 1
	default:
		return 2
	}
}
