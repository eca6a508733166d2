package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/mvconv/internal/app/run"
	"github.com/John-Robertt/mvconv/internal/config"
	"github.com/John-Robertt/mvconv/internal/domain"
)

var _ run.Observer = (*consoleUI)(nil)

// consoleUI 把 run 层事件渲染到终端。
//
// - echo：stdout 回显契约（"Movies =" + JSON、"Movies sorted by <Key> =" + JSON、XML 生成提示）；nil 表示 --quiet
// - progress：阶段/配置信息，写 stderr；nil 表示不输出（非 --verbose）
type consoleUI struct {
	echo     io.Writer
	progress io.Writer

	mu      sync.Mutex
	sortKey string
}

func newConsoleUI(echo, progress io.Writer) *consoleUI {
	return &consoleUI{echo: echo, progress: progress}
}

func (c *consoleUI) OnStart(eff config.EffectiveConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sortKey = eff.SortKey.String()
	if c.progress == nil {
		return
	}

	fmt.Fprintf(c.progress, "[%s] mvconv\n", time.Now().Format("15:04:05"))
	fmt.Fprintln(c.progress, "配置（生效）:")
	fmt.Fprintf(c.progress, "  source: %s\n", truncate(eff.SourceLabel(), 160))
	fmt.Fprintf(c.progress, "  sort: %s\n", c.sortKey)
	if eff.URL != "" {
		fmt.Fprintf(c.progress, "  proxy: %s\n", formatProxy(eff.ProxyURL))
		fmt.Fprintf(c.progress, "  timeout: %s retry_max=%d\n", eff.Timeout, eff.RetryMax)
		fmt.Fprintf(c.progress, "  cache: %s offline: %s\n", onOff(eff.Cache), onOff(eff.Offline))
	}
	fmt.Fprintln(c.progress, "输出:")
	fmt.Fprintf(c.progress, "  out: %s\n", eff.OutDir)
	fmt.Fprintf(c.progress, "  files: %s, %s, %s\n", eff.JSONName, eff.SortedName, eff.XMLName)
	if eff.Report != "" {
		fmt.Fprintf(c.progress, "  report: %s\n", eff.Report)
	}
	fmt.Fprintln(c.progress)
}

func (c *consoleUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.progress == nil {
		return
	}

	switch name {
	case "load":
		note := ""
		if boolField(fields, "html") {
			note += " html"
		}
		if boolField(fields, "from_cache") {
			note += " cache"
		}
		if n, ok := fields["records"]; ok {
			fmt.Fprintf(c.progress, "读取: records=%v%s (%s)\n", n, note, formatShortDuration(dur))
		} else {
			fmt.Fprintf(c.progress, "读取: bytes=%d%s (%s)\n", intField(fields, "bytes"), note, formatShortDuration(dur))
		}
		if msg, ok := fields["cache_error"].(string); ok && msg != "" {
			fmt.Fprintf(c.progress, "  缓存写入失败（--offline 将无法使用）：%s\n", msg)
		}
	case "parse":
		fmt.Fprintf(c.progress, "解析: records=%d (%s)\n", intField(fields, "records"), formatShortDuration(dur))
	case "sort":
		fmt.Fprintf(c.progress, "排序: key=%v records=%d (%s)\n", fields["key"], intField(fields, "records"), formatShortDuration(dur))
	case "xml":
		fmt.Fprintf(c.progress, "XML: movies=%d (%s)\n", intField(fields, "movies"), formatShortDuration(dur))
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(c.progress, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (c *consoleUI) OnOutput(out domain.OutputResult, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.progress != nil {
		fmt.Fprintf(c.progress, "写入: %s (%d bytes)\n", out.Path, out.Bytes)
	}
	if c.echo == nil {
		return
	}

	switch out.Kind {
	case domain.OutputUnsorted:
		fmt.Fprintln(c.echo, "Movies =")
		writeJSONPayload(c.echo, payload)
	case domain.OutputSorted:
		fmt.Fprintf(c.echo, "Movies sorted by %s =\n", c.sortKey)
		writeJSONPayload(c.echo, payload)
	case domain.OutputXML:
		fmt.Fprintf(c.echo, "XML file created: %s\n", out.Path)
	}
}

func writeJSONPayload(w io.Writer, b []byte) {
	_, _ = w.Write(b)
	if len(b) == 0 || b[len(b)-1] != '\n' {
		fmt.Fprintln(w)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

// truncate 按字符（rune）截断，max 以字符数计。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	default:
		return 0
	}
}

func boolField(fields map[string]any, key string) bool {
	v, _ := fields[key].(bool)
	return v
}
