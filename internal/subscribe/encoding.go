package subscribe

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// decodeLinkBase64 按宽松规则解码链接内的 base64，兼容有无填充与 URL 安全字母表。
func decodeLinkBase64(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadBase64)
	}
	decoded, err := base64.RawStdEncoding.DecodeString(s)
	if err == nil {
		return decoded, nil
	}
	if decoded, urlErr := base64.RawURLEncoding.DecodeString(s); urlErr == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrBadBase64, err)
}

// splitHostPort 拆分 host:port，方括号包裹的 IPv6 交给 net.SplitHostPort。
func splitHostPort(hostport string) (string, int, error) {
	hostport = strings.TrimSpace(hostport)
	var host, port string
	if strings.HasPrefix(hostport, "[") {
		h, p, err := net.SplitHostPort(hostport)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrMissingDelimiter, err)
		}
		host, port = h, p
	} else {
		h, p, ok := strings.Cut(hostport, ":")
		if !ok {
			return "", 0, fmt.Errorf("%w: expected host:port", ErrMissingDelimiter)
		}
		host, port = h, p
	}
	n, err := parsePort(port)
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(host), n, nil
}

func parsePort(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPort, raw)
	}
	return n, nil
}

// unescapeName 百分号解码节点名称，解码失败时保留原文，空值使用默认名。
func unescapeName(fragment, fallback string) string {
	name := unescape(fragment)
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func unescape(raw string) string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
