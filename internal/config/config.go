package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/mvconv/internal/domain"
)

const (
	// ErrCodeInvalid 表示配置文件/环境变量/CLI 参数无法解析或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
)

const (
	// FileName 是 cwd 下可选的配置文件名。
	FileName = "mvconv.json"
	// EnvFileName 是 cwd 下可选的 .env 文件名（由 godotenv 读取，不覆盖已有环境变量）。
	EnvFileName = ".env"

	DefaultSource     = "Movies.txt"
	DefaultJSONName   = "Movies.json"
	DefaultSortedName = "MoviesSorted.json"
	DefaultXMLName    = "Movies.xml"
	DefaultTimeout    = 30 * time.Second
)

// 环境变量名（优先级介于 CLI 与配置文件之间）。
const (
	EnvSource   = "MVCONV_SOURCE"
	EnvURL      = "MVCONV_URL"
	EnvSortKey  = "MVCONV_SORT_KEY"
	EnvOutDir   = "MVCONV_OUT_DIR"
	EnvProxyURL = "MVCONV_PROXY_URL"
)

// CLIArgs 只包含 CLI 暴露的入口，空字符串表示“未指定”。
// Offline 是布尔开关，需要 OfflineSet 才能覆盖配置文件中的 true。
type CLIArgs struct {
	Source  string
	URL     string
	SortKey string
	OutDir  string
	Report  string

	Offline    bool
	OfflineSet bool

	// IgnoreSource=true 时不解析/校验输入源（url/source/offline），用于只读已有 JSON 的命令。
	IgnoreSource bool
}

// FileConfig 对应 mvconv.json 的解析结构。
type FileConfig struct {
	Source     string       `json:"source"`
	URL        string       `json:"url"`
	SortKey    string       `json:"sort_key"`
	OutDir     string       `json:"out_dir"`
	JSONName   string       `json:"json_name"`
	SortedName string       `json:"sorted_name"`
	XMLName    string       `json:"xml_name"`
	Report     string       `json:"report"`
	Proxy      *ProxyConfig `json:"proxy"`
	TimeoutSec int          `json:"timeout_sec"`
	RetryMax   int          `json:"retry_max"`
	Cache      bool         `json:"cache"`
	Offline    *bool        `json:"offline"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Source 为本地文件绝对路径；URL 非空时忽略。
	Source string
	URL    string

	SortKey domain.SortKey

	OutDir     string
	JSONName   string
	SortedName string
	XMLName    string
	// Report 非空时把 RunReport 写到该绝对路径。
	Report string

	ProxyURL string
	Timeout  time.Duration
	RetryMax int

	// Cache 启用 <out>/cache/sources/ 的 URL 文本缓存；Offline 只读缓存。
	Cache   bool
	Offline bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if m := e.Message(); m != "" {
		return e.Code + "：" + m
	}
	return e.Code
}

// Message 返回不含 error_code 的错误描述。
func (e *Error) Message() string {
	if e.Err == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("%q：%v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LookupEnv 与 os.LookupEnv 签名一致，便于测试注入。
type LookupEnv func(key string) (string, bool)

// LoadDotEnv 读取 <cwd>/.env（可选）；已存在的环境变量不会被覆盖。
func LoadDotEnv(cwd string) error {
	p := filepath.Join(cwd, EnvFileName)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &Error{Code: ErrCodeInvalid, Path: p, Err: err}
	}
	if err := godotenv.Load(p); err != nil {
		return &Error{Code: ErrCodeInvalid, Path: p, Err: err}
	}
	return nil
}

// LoadEffective 读取 <cwd>/mvconv.json（可选），与环境变量和 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 内置默认。
// 相对路径一律以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs, env LookupEnv) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(cwdAbs, cli, env, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, env LookupEnv, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	var srcURL, source string
	if !cli.IgnoreSource {
		u, p := pickSource(
			[2]string{cli.URL, cli.Source},
			[2]string{envValue(env, EnvURL), envValue(env, EnvSource)},
			[2]string{fc.URL, fc.Source},
		)
		if u != "" {
			if err := validateHTTPURL(u); err != nil {
				return invalid(fmt.Errorf("url 无效：%w", err))
			}
		}
		if u == "" && p == "" {
			p = DefaultSource
		}
		srcURL, source = u, absCleanFrom(cwdAbs, p)
	}

	sortKey, err := domain.ParseSortKey(pick(cli.SortKey, envValue(env, EnvSortKey), fc.SortKey, domain.DefaultSortKey.String()))
	if err != nil {
		return invalid(err)
	}

	outDir := absCleanFrom(cwdAbs, pick(cli.OutDir, envValue(env, EnvOutDir), fc.OutDir, "."))

	names := [3]string{
		pick(fc.JSONName, DefaultJSONName),
		pick(fc.SortedName, DefaultSortedName),
		pick(fc.XMLName, DefaultXMLName),
	}
	seen := map[string]bool{}
	for _, n := range names {
		if n != filepath.Base(n) || n == "." || n == ".." {
			return invalid(fmt.Errorf("输出文件名只能是文件名（不能包含目录）：%q", n))
		}
		if seen[n] {
			return invalid(fmt.Errorf("输出文件名重复：%q", n))
		}
		seen[n] = true
	}

	report := ""
	if r := pick(cli.Report, fc.Report); r != "" {
		report = absCleanFrom(cwdAbs, r)
	}

	proxyURL := envValue(env, EnvProxyURL)
	if proxyURL == "" && fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if err := validateProxyURL(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	timeout := DefaultTimeout
	if fc.TimeoutSec < 0 {
		return invalid(fmt.Errorf("timeout_sec 不能为负数：%d", fc.TimeoutSec))
	}
	if fc.TimeoutSec > 0 {
		timeout = time.Duration(fc.TimeoutSec) * time.Second
	}

	// 约定：重试次数范围 [0, 5]；超出截断。
	retryMax := fc.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}
	if retryMax > 5 {
		retryMax = 5
	}

	offline := false
	if cli.OfflineSet {
		offline = cli.Offline
	} else if fc.Offline != nil {
		offline = *fc.Offline
	}
	if cli.IgnoreSource {
		offline = false
	}
	if offline && srcURL == "" {
		return invalid(fmt.Errorf("offline 只对 url 输入源有效"))
	}

	return EffectiveConfig{
		Source:     source,
		URL:        srcURL,
		SortKey:    sortKey,
		OutDir:     outDir,
		JSONName:   names[0],
		SortedName: names[1],
		XMLName:    names[2],
		Report:     report,
		ProxyURL:   proxyURL,
		Timeout:    timeout,
		RetryMax:   retryMax,
		Cache:      fc.Cache || offline,
		Offline:    offline,
	}, nil
}

// OutputPath 返回输出文件的绝对路径。
func (e EffectiveConfig) OutputPath(name string) string {
	return filepath.Join(e.OutDir, name)
}

// SourceLabel 返回当前生效的输入源（URL 优先）。
func (e EffectiveConfig) SourceLabel() string {
	if e.URL != "" {
		return e.URL
	}
	return e.Source
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("缺少 host：%q", raw)
	}
	return nil
}

func validateProxyURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("必须包含 scheme 与 host：%q", raw)
	}
	return nil
}

// pickSource 按层（CLI > 环境变量 > 配置文件）选择输入源：
// 第一个给出 url 或 source 的层同时决定两者，低层的另一项不会“漏”上来。
func pickSource(layers ...[2]string) (rawURL, path string) {
	for _, l := range layers {
		u, p := strings.TrimSpace(l[0]), strings.TrimSpace(l[1])
		if u != "" || p != "" {
			return u, p
		}
	}
	return "", ""
}

// pick 返回第一个非空（去空白后）的值。
func pick(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func envValue(env LookupEnv, key string) string {
	v, ok := env(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
