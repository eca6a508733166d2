package parser

import (
	"strings"

	"github.com/John-Robertt/mvconv/internal/domain"
)

// Parse 把整段文本解析为 Movie 列表（顺序 = 文本中块的顺序）。
//
// 规则：
// - 先去掉首尾空白，再按空行（空或仅含空白的行）切块；连续空行不会产生空块
// - 每个块独立解析，互不影响
// - 解析永远不失败：无法识别的行/键直接忽略
func Parse(text string) []domain.Movie {
	blocks := SplitBlocks(text)
	out := make([]domain.Movie, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ParseBlock(b))
	}
	return out
}

// SplitBlocks 返回按空行切分后的块（每块为若干非空行）。
func SplitBlocks(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		blocks [][]string
		cur    []string
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// ParseBlock 解析单个块。
//
// 每行按第一个 ':' 切为 key/value（两侧去空白），没有 ':' 的行跳过。
// Title/Genre/Studio/Year 后出现的覆盖先出现的；Director Name 按出现顺序累加。
// Year 能解析为整数则为整数，否则保留原文。
func ParseBlock(lines []string) domain.Movie {
	var m domain.Movie
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		kind, ok := domain.InputKey(key)
		if !ok {
			continue
		}
		switch kind {
		case domain.FieldTitle:
			m.Title = domain.Some(value)
		case domain.FieldGenre:
			m.Genre = domain.Some(value)
		case domain.FieldDirector:
			m.Directors = append(m.Directors, domain.Director{Name: value})
		case domain.FieldStudio:
			m.Studio = domain.Some(value)
		case domain.FieldYear:
			m.Year = domain.ParseYear(value)
		}
	}
	return m
}
