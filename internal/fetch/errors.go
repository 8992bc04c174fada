// 文件路径: internal/fetch/errors.go
// 模块说明: 这是 internal 模块里的 errors 逻辑，定义抓取失败的错误类型以及重试判定。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	ErrUnsupportedScheme = errors.New("fetch: unsupported url scheme / 仅支持 http 与 https")
	ErrTooLarge          = errors.New("fetch: response body too large / 响应体超过上限")
	ErrEmptySource       = errors.New("fetch: empty source / 订阅来源为空")
)

// FetchError 描述一次抓取失败，Status 为 0 表示没有拿到 HTTP 响应。
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	target := Redact(e.URL)
	if e.Status != 0 {
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: status %d: %v", target, e.Status, e.Err)
		}
		return fmt.Sprintf("fetch %s: unexpected status %d %s", target, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("fetch %s: %v", target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary 判断失败是否值得重试：网络错误、5xx 与 429。
func (e *FetchError) Temporary() bool {
	if e.Status == 0 {
		return !errors.Is(e.Err, ErrUnsupportedScheme) && !errors.Is(e.Err, ErrTooLarge)
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Temporary()
	}
	if errors.Is(err, ErrUnsupportedScheme) || errors.Is(err, ErrTooLarge) || errors.Is(err, ErrEmptySource) {
		return false
	}
	// 其余错误多为网络抖动
	return true
}

// Redact 只保留协议与主机部分，订阅地址的路径和参数里通常带有令牌。
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<subscription>"
	}
	if u.Path == "" && u.RawQuery == "" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/..."
}
