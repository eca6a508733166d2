package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "mvconv/1.0 (+https://github.com/John-Robertt/mvconv)"

	// 重试之间的最小间隔（由 limiter 控制，首次尝试不等待）。
	retryInterval = 500 * time.Millisecond
)

// Options 描述抓取输入源所用 client 的网络策略。
type Options struct {
	ProxyURL  string
	Timeout   time.Duration // <=0 时使用 DefaultTimeout
	RetryMax  int           // 最大重试次数（不含首次尝试）；<0 视为 0
	UserAgent string
}

// Transport 把“固定 UA + 代理 + 有界重试（限速）”固化为统一策略。
//
// 输入源抓取只关心“拿到文本”，不关心网络策略细节。
type Transport struct {
	Base *http.Transport

	UserAgent string

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int

	// Limiter 约束重试节奏；nil 表示不等待。
	Limiter *rate.Limiter
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 && t.Limiter != nil {
			if err := t.Limiter.Wait(req.Context()); err != nil {
				return nil, lastErr
			}
		}

		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewSourceClient 构造用于抓取输入源（URL）的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理（必须是合法 URL）
// - 固定 UA；有界重试 + 总超时
func NewSourceClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	if p := strings.TrimSpace(opts.ProxyURL); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("代理地址必须包含 scheme 与 host：" + p)
		}
		base.Proxy = http.ProxyURL(u)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	retryMax := opts.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}

	tr := &Transport{
		Base:      base,
		UserAgent: ua,
		RetryMax:  retryMax,
		Limiter:   rate.NewLimiter(rate.Every(retryInterval), 1),
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}
