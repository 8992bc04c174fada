package subscribe

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

const defaultTrojanName = "Trojan"

func parseTrojan(body string) (proxy.Proxy, error) {
	body, fragment, _ := strings.Cut(body, "#")
	name := unescapeName(fragment, defaultTrojanName)

	password, rest, ok := strings.Cut(body, "@")
	if !ok {
		return proxy.Proxy{}, fmt.Errorf("%w: expected password@host:port", ErrMissingDelimiter)
	}
	hostport, query, _ := strings.Cut(rest, "?")
	server, port, err := splitHostPort(strings.TrimSuffix(hostport, "/"))
	if err != nil {
		return proxy.Proxy{}, err
	}
	return proxy.Proxy{
		Kind:     proxy.KindTrojan,
		Name:     name,
		Server:   server,
		Port:     port,
		Password: unescape(password),
		SNI:      trojanSNI(query, server),
	}, nil
}

// trojanSNI 读取 sni 或 peer 参数，缺省为服务器地址。
func trojanSNI(query, server string) string {
	if query == "" {
		return server
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return server
	}
	for _, key := range []string{"sni", "peer"} {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			return v
		}
	}
	return server
}
