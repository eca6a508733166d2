package source

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ErrCodeMissing 表示既没有 URL 也没有本地路径。
	ErrCodeMissing = "input_missing"
	// ErrCodeNotFound 表示本地文件不存在。
	ErrCodeNotFound = "input_not_found"
	// ErrCodeReadFailed 表示本地文件存在但无法读取（权限/是目录等）。
	ErrCodeReadFailed = "input_read_failed"
	// ErrCodeFetchFailed 表示 URL 抓取失败（网络错误或非 2xx）。
	ErrCodeFetchFailed = "input_fetch_failed"
	// ErrCodeNotCached 表示 offline 模式下缓存中没有该 URL。
	ErrCodeNotCached = "input_not_cached"
)

// InputError 是读取输入源阶段的结构化错误（带 error_code）。
type InputError struct {
	Code   string
	Source string // URL 或本地路径；input_missing 时为空
	Err    error
}

func (e *InputError) Error() string {
	src := e.Source
	if src == "" {
		src = "<none>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s：%s：%v", e.Code, src, e.Err)
	}
	return fmt.Sprintf("%s：%s", e.Code, src)
}

func (e *InputError) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *InputError 则返回空串。
func Code(err error) string {
	var e *InputError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatusError 表示源站返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}
