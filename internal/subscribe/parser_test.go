package subscribe

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

func vmessLink(payload string) string {
	return "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestParseLinkShadowsocksSIP002(t *testing.T) {
	p, err := ParseLink("ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ=@example.com:8388#MyNode")
	require.NoError(t, err)
	assert.Equal(t, proxy.Proxy{
		Kind:     proxy.KindShadowsocks,
		Name:     "MyNode",
		Server:   "example.com",
		Port:     8388,
		Cipher:   "aes-256-gcm",
		Password: "password",
	}, p)
}

func TestParseLinkShadowsocksVariants(t *testing.T) {
	tests := []struct {
		name string
		line string
		want proxy.Proxy
	}{
		{
			name: "plain userinfo and default name",
			line: "ss://aes-128-gcm:secret@1.1.1.1:443",
			want: proxy.Proxy{Kind: proxy.KindShadowsocks, Name: "Shadowsocks", Server: "1.1.1.1", Port: 443, Cipher: "aes-128-gcm", Password: "secret"},
		},
		{
			name: "unpadded userinfo with plugin query",
			line: "ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ@example.com:8388/?plugin=obfs-local#%E9%A6%99%E6%B8%AF",
			want: proxy.Proxy{Kind: proxy.KindShadowsocks, Name: "香港", Server: "example.com", Port: 8388, Cipher: "aes-256-gcm", Password: "password"},
		},
		{
			name: "legacy blob with at sign in password",
			line: "ss://Y2hhY2hhMjAtaWV0Zi1wb2x5MTMwNTpwQHNzQGxlZ2FjeS5leGFtcGxlLmNvbTo4Mzg5#Legacy",
			want: proxy.Proxy{Kind: proxy.KindShadowsocks, Name: "Legacy", Server: "legacy.example.com", Port: 8389, Cipher: "chacha20-ietf-poly1305", Password: "p@ss"},
		},
		{
			name: "ipv6 server",
			line: "ss://aes-128-gcm:secret@[2001:db8::1]:8388#v6",
			want: proxy.Proxy{Kind: proxy.KindShadowsocks, Name: "v6", Server: "2001:db8::1", Port: 8388, Cipher: "aes-128-gcm", Password: "secret"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLink(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLinkTrojan(t *testing.T) {
	p, err := ParseLink("trojan://secret@host.example:443#Edge")
	require.NoError(t, err)
	assert.Equal(t, proxy.Proxy{
		Kind:     proxy.KindTrojan,
		Name:     "Edge",
		Server:   "host.example",
		Port:     443,
		Password: "secret",
		SNI:      "host.example",
	}, p)

	p, err = ParseLink("trojan://p%40ss@1.2.3.4:8443?sni=cdn.example&allowInsecure=1")
	require.NoError(t, err)
	assert.Equal(t, "Trojan", p.Name)
	assert.Equal(t, "p@ss", p.Password)
	assert.Equal(t, "cdn.example", p.SNI)
	assert.Equal(t, 8443, p.Port)
}

func TestParseLinkVmess(t *testing.T) {
	line := vmessLink(`{"v":"2","ps":"HK 01","add":"hk.example.com","port":"443","id":"b831381d-6324-4d53-ad4f-8cda48b30811","aid":"0","scy":"auto","net":"ws","host":"cdn.example.com","path":"/ray","tls":"tls","sni":""}`)
	p, err := ParseLink(line)
	require.NoError(t, err)
	assert.Equal(t, proxy.Proxy{
		Kind:    proxy.KindVmess,
		Name:    "HK 01",
		Server:  "hk.example.com",
		Port:    443,
		UUID:    "b831381d-6324-4d53-ad4f-8cda48b30811",
		Cipher:  "auto",
		Network: "ws",
		TLS:     true,
		SNI:     "cdn.example.com",
		WSPath:  "/ray",
		WSHost:  "cdn.example.com",
	}, p)
}

func TestParseLinkVmessDefaults(t *testing.T) {
	p, err := ParseLink(vmessLink(`{"add":"jp.example.com","id":"uuid-jp","aid":2}`))
	require.NoError(t, err)
	assert.Equal(t, "VMess", p.Name)
	assert.Equal(t, 443, p.Port)
	assert.Equal(t, 2, p.AlterID)
	assert.Equal(t, "auto", p.Cipher)
	assert.Equal(t, "tcp", p.Network)
	assert.False(t, p.TLS)
	assert.Empty(t, p.SNI)

	raw := base64.RawURLEncoding.EncodeToString([]byte(`{"ps":"n","add":"a","port":8443,"id":"u"}`))
	p, err = ParseLink("vmess://" + raw)
	require.NoError(t, err)
	assert.Equal(t, 8443, p.Port)
}

func TestParseLinkVmessZeroPortParsesButFailsValidation(t *testing.T) {
	p, err := ParseLink(vmessLink(`{"add":"1.2.3.4","port":"0","id":"","ps":"Bad"}`))
	require.NoError(t, err)
	assert.Equal(t, "Bad", p.Name)
	assert.False(t, proxy.Valid(p))
}

func TestParseLinkFailures(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind proxy.Kind
		want error
	}{
		{"vmess bad base64", "vmess://!!!", proxy.KindVmess, ErrBadBase64},
		{"vmess not json", vmessLink("hello"), proxy.KindVmess, ErrBadJSON},
		{"vmess array", vmessLink("[1,2]"), proxy.KindVmess, ErrBadJSON},
		{"vmess port text", vmessLink(`{"add":"a","id":"u","port":"abc"}`), proxy.KindVmess, ErrBadPort},
		{"vmess aid text", vmessLink(`{"add":"a","id":"u","aid":"x"}`), proxy.KindVmess, ErrBadNumber},
		{"ss missing colon", "ss://bm9jb2xvbg@host:1", proxy.KindShadowsocks, ErrMissingDelimiter},
		{"ss legacy without at", "ss://" + base64.StdEncoding.EncodeToString([]byte("aes:pw")), proxy.KindShadowsocks, ErrMissingDelimiter},
		{"ss legacy bad base64", "ss://%%%", proxy.KindShadowsocks, ErrBadBase64},
		{"ss missing port", "ss://aes:pw@host", proxy.KindShadowsocks, ErrMissingDelimiter},
		{"trojan missing at", "trojan://host:443", proxy.KindTrojan, ErrMissingDelimiter},
		{"trojan bad port", "trojan://pw@host:port", proxy.KindTrojan, ErrBadPort},
		{"unknown scheme", "vless://id@host:443", 0, ErrUnsupportedScheme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLink(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.NotEmpty(t, perr.Reason())
		})
	}
}

func TestParseLinkIdempotent(t *testing.T) {
	lines := []string{
		"ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ=@example.com:8388#MyNode",
		"trojan://secret@host.example:443#Edge",
		vmessLink(`{"ps":"a","add":"b","port":"1","id":"c"}`),
	}
	for _, line := range lines {
		first, err1 := ParseLink(line)
		second, err2 := ParseLink(line)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first, second)
	}
}

func TestSchemeOf(t *testing.T) {
	kind, ok := SchemeOf("VMESS://abc")
	assert.True(t, ok)
	assert.Equal(t, proxy.KindVmess, kind)

	_, ok = SchemeOf("hysteria2://x")
	assert.False(t, ok)
	_, ok = SchemeOf("ss:/")
	assert.False(t, ok)
}

func TestParseAllCollectsFailuresInOrder(t *testing.T) {
	lines := []string{
		"trojan://secret@host.example:443#A",
		"vless://skip@me:1",
		"vmess://@@@",
		vmessLink(`{"add":"1.2.3.4","port":"0","id":"","ps":"Bad"}`),
		"ss://aes-128-gcm:pw@h:1#B",
	}
	batch := ParseAll(lines)
	assert.Equal(t, 1, batch.Skipped)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, 3, batch.Failures[0].Index)
	assert.Contains(t, batch.Failures[0].Error(), "#3")
	require.Len(t, batch.Proxies, 3)
	assert.Equal(t, []string{"A", "Bad", "B"}, proxy.Names(batch.Proxies))
	assert.Equal(t, []string{"A", "B"}, proxy.Names(proxy.FilterValid(batch.Proxies)))
}

func TestParseDecodesWrappedSubscription(t *testing.T) {
	body := strings.Join([]string{
		"trojan://secret@host.example:443#A",
		"ss://aes-128-gcm:pw@h:1#B",
	}, "\r\n")
	batch := Parse([]byte(base64.StdEncoding.EncodeToString([]byte(body))))
	require.Len(t, batch.Proxies, 2)
	assert.Empty(t, batch.Failures)
}

func FuzzParseLink(f *testing.F) {
	f.Add("ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ=@example.com:8388#MyNode")
	f.Add("trojan://secret@[::1]:443?sni=x#E")
	f.Add(vmessLink(`{"port":1}`))
	f.Add("ss://@")
	f.Fuzz(func(t *testing.T, line string) {
		_, _ = ParseLink(line)
	})
}
