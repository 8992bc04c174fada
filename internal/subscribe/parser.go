// 文件路径: internal/subscribe/parser.go
// 模块说明: 按链接前缀分发到 vmess / ss / trojan 解析器，失败以值的形式返回。
package subscribe

import (
	"errors"
	"strings"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

var schemes = []struct {
	prefix string
	kind   proxy.Kind
}{
	{"vmess://", proxy.KindVmess},
	{"ss://", proxy.KindShadowsocks},
	{"trojan://", proxy.KindTrojan},
}

// SchemeOf 识别链接协议，未知协议返回 false，调用方应直接跳过。
func SchemeOf(line string) (proxy.Kind, bool) {
	_, kind, ok := splitScheme(line)
	return kind, ok
}

func splitScheme(line string) (string, proxy.Kind, bool) {
	for _, s := range schemes {
		if len(line) >= len(s.prefix) && strings.EqualFold(line[:len(s.prefix)], s.prefix) {
			return line[len(s.prefix):], s.kind, true
		}
	}
	return "", 0, false
}

// ParseLink 解析单条链接。失败时返回 *ParseError。
func ParseLink(line string) (proxy.Proxy, error) {
	line = strings.TrimSpace(line)
	body, kind, ok := splitScheme(line)
	if !ok {
		return proxy.Proxy{}, newParseError(0, line, ErrUnsupportedScheme)
	}

	var (
		p   proxy.Proxy
		err error
	)
	switch kind {
	case proxy.KindVmess:
		p, err = parseVmess(body)
	case proxy.KindShadowsocks:
		p, err = parseShadowsocks(body)
	case proxy.KindTrojan:
		p, err = parseTrojan(body)
	}
	if err != nil {
		return proxy.Proxy{}, newParseError(kind, line, err)
	}
	return p, nil
}

// Batch 汇总一次订阅的解析结果，顺序与输入一致。
type Batch struct {
	Proxies  []proxy.Proxy
	Failures []*ParseError
	// Skipped 统计未识别协议而被跳过的行数。
	Skipped int
}

// ParseAll parses every recognised line and collects failures instead of stopping.
func ParseAll(lines []string) Batch {
	var batch Batch
	for i, line := range lines {
		if _, ok := SchemeOf(line); !ok {
			batch.Skipped++
			continue
		}
		p, err := ParseLink(line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Index = i + 1
				batch.Failures = append(batch.Failures, perr)
			}
			continue
		}
		batch.Proxies = append(batch.Proxies, p)
	}
	return batch
}

// Parse 解码订阅并解析全部链接。
func Parse(raw []byte) Batch {
	return ParseAll(Decode(raw))
}
