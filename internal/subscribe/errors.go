package subscribe

import (
	"errors"
	"fmt"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

var (
	ErrUnsupportedScheme = errors.New("subscribe: unsupported scheme / 不支持的链接协议")
	ErrBadBase64         = errors.New("subscribe: invalid base64 payload / base64 解码失败")
	ErrBadJSON           = errors.New("subscribe: invalid json payload / JSON 解析失败")
	ErrMissingDelimiter  = errors.New("subscribe: missing delimiter / 缺少分隔符")
	ErrBadPort           = errors.New("subscribe: invalid port / 端口不是整数")
	ErrBadNumber         = errors.New("subscribe: invalid number / 数值字段不是整数")
)

// ParseError 描述单条链接的解析失败，不会中断整批解析。
type ParseError struct {
	// Index 是链接在解码结果中的序号（从 1 开始），单独调用 ParseLink 时为 0。
	Index int
	Kind  proxy.Kind
	Line  string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("parse %s link #%d: %v", e.Kind, e.Index, e.Err)
	}
	return fmt.Sprintf("parse %s link: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reason 返回不含上下文的失败原因，便于日志与展示。
func (e *ParseError) Reason() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newParseError(kind proxy.Kind, line string, err error) *ParseError {
	return &ParseError{Kind: kind, Line: line, Err: err}
}
