package subscribe

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

const defaultShadowsocksName = "Shadowsocks"

// parseShadowsocks 支持 SIP002（userinfo@host:port）与旧版整体 base64 两种格式。
// '#' 之前出现 '@' 即按 SIP002 处理；旧版 blob 解码前恰好含 '@' 时会被误判。
func parseShadowsocks(body string) (proxy.Proxy, error) {
	body, fragment, _ := strings.Cut(body, "#")
	name := unescapeName(fragment, defaultShadowsocksName)

	var (
		creds    string
		hostport string
	)
	if userinfo, hostpart, ok := strings.Cut(body, "@"); ok {
		creds = decodeUserinfo(userinfo)
		hostpart, _, _ = strings.Cut(hostpart, "?")
		hostport = strings.TrimSuffix(hostpart, "/")
	} else {
		blob, err := decodeLinkBase64(body)
		if err != nil {
			return proxy.Proxy{}, err
		}
		text := string(blob)
		at := strings.LastIndex(text, "@")
		if at < 0 {
			return proxy.Proxy{}, fmt.Errorf("%w: expected method:password@host:port", ErrMissingDelimiter)
		}
		creds, hostport = text[:at], text[at+1:]
	}

	method, password, ok := strings.Cut(creds, ":")
	if !ok {
		return proxy.Proxy{}, fmt.Errorf("%w: expected method:password", ErrMissingDelimiter)
	}
	server, port, err := splitHostPort(hostport)
	if err != nil {
		return proxy.Proxy{}, err
	}
	return proxy.Proxy{
		Kind:     proxy.KindShadowsocks,
		Name:     name,
		Server:   server,
		Port:     port,
		Cipher:   strings.TrimSpace(method),
		Password: password,
	}, nil
}

// decodeUserinfo 优先按 base64 解码，结果不像 method:password 时退回百分号解码后的原文。
func decodeUserinfo(userinfo string) string {
	if decoded, err := decodeLinkBase64(userinfo); err == nil && utf8.Valid(decoded) && strings.Contains(string(decoded), ":") {
		return string(decoded)
	}
	return unescape(userinfo)
}
