package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/John-Robertt/mvconv/internal/infra/cache"
)

// Input 指定输入源：URL 与本地路径二选一；两者都给时 URL 优先。
type Input struct {
	URL  string
	Path string
}

// Options 控制 URL 抓取的行为；读取本地文件时全部忽略。
type Options struct {
	Client *http.Client

	// Cache 非 nil 时：抓取成功后写入缓存（ReadOnly 时跳过）。
	Cache *cache.Store
	// Offline=true：只读缓存，不访问网络（需要 Cache）。
	Offline bool
}

// Text 是读取到的原始记录文本及其来源信息。
type Text struct {
	Content   string
	Origin    string // URL 或本地路径
	FromCache bool
	HTML      bool // 来源是 HTML 页面（已抽取文本）

	// CacheErr 为写入缓存失败的原因；不影响本次读取结果。
	CacheErr error
}

// Load 读取输入源的全部文本（UTF-8）。
//
// 失败统一返回 *InputError，调用方可用 Code(err) 分类。
func Load(ctx context.Context, in Input, opts Options) (Text, error) {
	u := strings.TrimSpace(in.URL)
	p := strings.TrimSpace(in.Path)
	switch {
	case u != "":
		return loadURL(ctx, u, opts)
	case p != "":
		return loadFile(p)
	default:
		return Text{}, &InputError{Code: ErrCodeMissing, Err: errors.New("未提供输入源（URL 或本地文件）")}
	}
}

func loadFile(path string) (Text, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Text{}, &InputError{Code: ErrCodeNotFound, Source: path, Err: err}
		}
		return Text{}, &InputError{Code: ErrCodeReadFailed, Source: path, Err: err}
	}
	return Text{Content: decodeText(b), Origin: path}, nil
}

func loadURL(ctx context.Context, u string, opts Options) (Text, error) {
	if opts.Offline {
		if opts.Cache == nil {
			return Text{}, &InputError{Code: ErrCodeNotCached, Source: u, Err: errors.New("offline 模式需要启用缓存")}
		}
		b, ok, err := opts.Cache.ReadSource(u)
		if err != nil {
			return Text{}, &InputError{Code: ErrCodeReadFailed, Source: u, Err: err}
		}
		if !ok {
			return Text{}, &InputError{Code: ErrCodeNotCached, Source: u}
		}
		return Text{Content: decodeText(b), Origin: u, FromCache: true}, nil
	}

	if opts.Client == nil {
		return Text{}, &InputError{Code: ErrCodeFetchFailed, Source: u, Err: errors.New("http client 不能为空")}
	}

	body, contentType, err := fetchURL(ctx, opts.Client, u)
	if err != nil {
		return Text{}, &InputError{Code: ErrCodeFetchFailed, Source: u, Err: err}
	}

	t := Text{Origin: u}
	if isHTML(contentType, body) {
		s, err := extractHTMLText(body)
		if err != nil {
			return Text{}, &InputError{Code: ErrCodeFetchFailed, Source: u, Err: err}
		}
		t.Content = s
		t.HTML = true
	} else {
		t.Content = decodeText(body)
	}

	if opts.Cache != nil && !opts.Cache.ReadOnly {
		t.CacheErr = opts.Cache.WriteSource(u, []byte(t.Content))
	}
	return t, nil
}

func fetchURL(ctx context.Context, c *http.Client, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// decodeText 按 UTF-8 解释字节，去掉可能存在的 BOM。
func decodeText(b []byte) string {
	return strings.TrimPrefix(string(b), "\ufeff")
}
