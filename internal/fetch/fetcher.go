// 文件路径: internal/fetch/fetcher.go
// 模块说明: 这是 internal 模块里的 fetcher 逻辑，负责下载订阅内容，也能从本地文件或标准输入读取。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/creamcroissant/autoconvert/internal/cache"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 10 << 20
	DefaultUserAgent = "autoconvert/dev"
	// StdinSource 表示从标准输入读取订阅。
	StdinSource = "-"
)

// Options 配置抓取器，零值字段使用默认值。
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Retry     RetryConfig
	// CacheTTL 为 0 时不缓存。
	CacheTTL time.Duration

	Client *http.Client
	Cache  cache.Store
	Logger *slog.Logger
	Stdin  io.Reader
}

// Fetcher 读取订阅原文。
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	retry     RetryConfig
	cacheTTL  time.Duration
	cache     cache.Store
	logger    *slog.Logger
	stdin     io.Reader
}

// New 创建抓取器。
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	var store cache.Store
	if opts.Cache != nil && opts.CacheTTL > 0 {
		store = opts.Cache.Namespace("fetch")
	}
	return &Fetcher{
		client:    client,
		maxBytes:  maxBytes,
		userAgent: userAgent,
		retry:     opts.Retry,
		cacheTTL:  opts.CacheTTL,
		cache:     store,
		logger:    logger,
		stdin:     stdin,
	}
}

// IsRemote 判断来源是否为 http(s) 地址。
func IsRemote(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load 按来源类型读取订阅：http(s) 地址、"-" 表示标准输入，其余视为本地文件。
func (f *Fetcher) Load(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, ErrEmptySource
	case source == StdinSource:
		return f.readLimited(f.stdin, "stdin")
	case IsRemote(source):
		return f.Fetch(ctx, source)
	case strings.Contains(source, "://"):
		return nil, &FetchError{URL: source, Err: ErrUnsupportedScheme}
	default:
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open subscription file: %w", err)
		}
		defer file.Close()
		return f.readLimited(file, source)
	}
}

// Fetch 下载订阅内容，对网络错误、5xx 与 429 做指数退避重试。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &FetchError{URL: rawURL, Err: ErrUnsupportedScheme}
	}
	key := parsed.String()
	if f.cache != nil {
		if body, ok := f.cache.GetBytes(ctx, key); ok {
			f.logger.Debug("subscription cache hit", "url", Redact(key))
			return body, nil
		}
	}

	var body []byte
	notify := func(err error, attempt int, wait time.Duration) {
		f.logger.Warn("subscription fetch failed, retrying",
			"url", Redact(key),
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}
	err = DoWithRetry(ctx, f.retry, notify, func(ctx context.Context) error {
		var fetchErr error
		body, fetchErr = f.fetchOnce(ctx, key)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		_ = f.cache.SetBytes(ctx, key, body, f.cacheTTL)
	}
	f.logger.Debug("subscription fetched", "url", Redact(key), "bytes", len(body))
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// url.Error 会带上完整地址，只保留底层原因
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{URL: target, Status: resp.StatusCode}
	}
	body, err := f.readLimited(resp.Body, "response body")
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	return body, nil
}

func (f *Fetcher) readLimited(r io.Reader, name string) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, f.maxBytes)
	}
	return body, nil
}
