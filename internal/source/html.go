package source

import (
	"bytes"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 块级元素结束时换行；<br> 换行；<hr> 视为记录分隔（空行）。
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// isHTML 依据 Content-Type（优先）或内容嗅探判断响应是否为 HTML 页面。
func isHTML(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "text/html", "application/xhtml+xml":
			return true
		case "text/plain":
			return false
		}
	}
	return strings.HasPrefix(http.DetectContentType(body), "text/html")
}

// extractHTMLText 从 HTML 页面中取出记录文本：优先第一个 <pre>，否则按块级结构还原 <body> 的文本行。
func extractHTMLText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if pre := doc.Find("pre").First(); pre.Length() > 0 {
		return pre.Text(), nil
	}

	var b strings.Builder
	writeBlockText(&b, doc.Find("body"))
	return b.String(), nil
}

func writeBlockText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch name := goquery.NodeName(c); {
		case name == "#text":
			t := c.Text()
			// 标签之间仅用于排版的空白不产生内容。
			if strings.TrimSpace(t) == "" {
				return
			}
			b.WriteString(t)
		case name == "br":
			b.WriteByte('\n')
		case name == "hr":
			endLine(b)
			b.WriteByte('\n')
		case name == "script" || name == "style" || name == "#comment":
		case blockElements[name]:
			endLine(b)
			writeBlockText(b, c)
			endLine(b)
		default:
			writeBlockText(b, c)
		}
	})
}

// endLine 保证已有内容以换行结尾（不产生额外空行）。
func endLine(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}
