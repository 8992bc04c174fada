// 文件路径: internal/protocol/surge.go
// 模块说明: 这是 internal 模块里的 surge 逻辑，把节点和策略拓扑渲染成 Surge 的分段配置。
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/creamcroissant/autoconvert/internal/policy"
	"github.com/creamcroissant/autoconvert/internal/proxy"
)

const (
	defaultProfileName     = "autoconvert"
	defaultManagedInterval = 43200
	defaultBanner          = "Auto Proxy Subscription Converter"
	surgeRuleExt           = "conf"
	surgeFinalSection      = "Final"
)

// SurgeGeneral 对应 [General] 段，按固定顺序输出。
type SurgeGeneral struct {
	SkipProxy       []string
	DNSServer       []string
	LogLevel        string
	InternetTestURL string
	ProxyTestURL    string
	TestTimeout     int
	IPv6            bool
}

// DefaultSurgeGeneral 返回默认的 [General] 设置。
func DefaultSurgeGeneral() SurgeGeneral {
	return SurgeGeneral{
		SkipProxy:       []string{"192.168.0.0/16", "10.0.0.0/8", "172.16.0.0/12", "localhost", "*.local"},
		DNSServer:       []string{"119.29.29.29", "223.5.5.5", "system"},
		LogLevel:        "notify",
		InternetTestURL: "http://www.aliyun.com",
		ProxyTestURL:    "http://www.google.com/generate_204",
		TestTimeout:     5,
	}
}

// SurgeOptions 配置 Surge 构建器，零值字段使用默认值。
type SurgeOptions struct {
	General         *SurgeGeneral
	ManagedInterval int
	ProfileName     string
}

type SurgeBuilder struct {
	base    *BaseBuilder
	general SurgeGeneral
	managed int
	profile string
}

func NewSurgeBuilder(opts SurgeOptions) *SurgeBuilder {
	base := NewBaseBuilder()
	base.Allow(proxy.KindShadowsocks, proxy.KindVmess, proxy.KindTrojan)
	general := DefaultSurgeGeneral()
	if opts.General != nil {
		general = *opts.General
	}
	managed := opts.ManagedInterval
	if managed <= 0 {
		managed = defaultManagedInterval
	}
	profile := strings.TrimSpace(opts.ProfileName)
	if profile == "" {
		profile = defaultProfileName
	}
	return &SurgeBuilder{base: base, general: general, managed: managed, profile: profile}
}

func (b *SurgeBuilder) Format() Format {
	return FormatSurge
}

func (b *SurgeBuilder) Flags() []string {
	return []string{"surge"}
}

func (b *SurgeBuilder) Build(req BuildRequest) (*Result, error) {
	pol := req.policy()
	proxies, excluded := b.base.FilterProxies(req)
	proxyLines := make([]string, 0, len(proxies))
	proxyNames := make([]string, 0, len(proxies))
	for _, p := range proxies {
		line := buildSurgeProxyLine(p)
		if line == "" {
			excluded++
			continue
		}
		proxyLines = append(proxyLines, line)
		proxyNames = append(proxyNames, p.Name)
	}

	builder := &strings.Builder{}
	b.writeHeader(builder, req)
	b.writeGeneral(builder)
	builder.WriteString("[Proxy]\n")
	for _, line := range proxyLines {
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	builder.WriteString("\n[Proxy Group]\n")
	for _, group := range pol.Groups(proxyNames) {
		builder.WriteString(formatSurgeGroup(group))
		builder.WriteString("\n")
	}
	builder.WriteString("\n[Rule]\n")
	writeSurgeRules(builder, pol)

	return &Result{
		Format:      FormatSurge,
		Payload:     []byte(builder.String()),
		ContentType: "text/plain; charset=utf-8",
		Headers:     attachmentHeaders(b.profile, FormatSurge),
		Rendered:    len(proxyLines),
		Excluded:    excluded,
	}, nil
}

func (b *SurgeBuilder) writeHeader(w *strings.Builder, req BuildRequest) {
	if managedURL := strings.TrimSpace(req.ManagedURL); managedURL != "" {
		fmt.Fprintf(w, "#!MANAGED-CONFIG %s interval=%d\n", managedURL, b.managed)
	} else {
		fmt.Fprintf(w, "#!MANAGED-CONFIG interval=%d\n", b.managed)
	}
	fmt.Fprintf(w, "# Generated at %s\n", req.timestamp())
	fmt.Fprintf(w, "# %s\n\n", defaultBanner)
}

func (b *SurgeBuilder) writeGeneral(w *strings.Builder) {
	g := b.general
	w.WriteString("[General]\n")
	if len(g.SkipProxy) > 0 {
		fmt.Fprintf(w, "skip-proxy = %s\n", strings.Join(g.SkipProxy, ", "))
	}
	if len(g.DNSServer) > 0 {
		fmt.Fprintf(w, "dns-server = %s\n", strings.Join(g.DNSServer, ", "))
	}
	if g.LogLevel != "" {
		fmt.Fprintf(w, "loglevel = %s\n", g.LogLevel)
	}
	if g.InternetTestURL != "" {
		fmt.Fprintf(w, "internet-test-url = %s\n", g.InternetTestURL)
	}
	if g.ProxyTestURL != "" {
		fmt.Fprintf(w, "proxy-test-url = %s\n", g.ProxyTestURL)
	}
	if g.TestTimeout > 0 {
		fmt.Fprintf(w, "test-timeout = %d\n", g.TestTimeout)
	}
	fmt.Fprintf(w, "ipv6 = %t\n\n", g.IPv6)
}

func formatSurgeGroup(g policy.Group) string {
	parts := append([]string{string(g.Type)}, g.Members...)
	if g.Type == policy.TypeURLTest {
		parts = append(parts, "url="+g.TestURL, "interval="+strconv.Itoa(g.Interval))
	}
	return g.Name + " = " + strings.Join(parts, ", ")
}

func writeSurgeRules(w *strings.Builder, pol *policy.Policy) {
	first := true
	section := func(label string) {
		if label == "" {
			return
		}
		if !first {
			w.WriteString("\n")
		}
		first = false
		fmt.Fprintf(w, "# %s\n", label)
	}
	for _, rule := range pol.Rules {
		section(rule.Section)
		if rule.Inline() {
			fmt.Fprintf(w, "IP-CIDR,%s,%s\n", rule.CIDR, rule.Target)
			continue
		}
		fmt.Fprintf(w, "RULE-SET,%s,%s\n", pol.RuleURL(rule, string(FormatSurge), surgeRuleExt), rule.Target)
	}
	section(surgeFinalSection)
	fmt.Fprintf(w, "FINAL,%s\n", pol.Final)
}

func buildSurgeProxyLine(p proxy.Proxy) string {
	switch p.Kind {
	case proxy.KindShadowsocks:
		return surgeShadowsocks(p)
	case proxy.KindVmess:
		return surgeVmess(p)
	case proxy.KindTrojan:
		return surgeTrojan(p)
	default:
		return ""
	}
}

func surgeShadowsocks(p proxy.Proxy) string {
	parts := []string{
		p.Name + " = ss",
		p.Server,
		strconv.Itoa(p.Port),
		"encrypt-method=" + p.Cipher,
		"password=" + p.Password,
	}
	return strings.Join(parts, ", ")
}

func surgeVmess(p proxy.Proxy) string {
	parts := []string{
		p.Name + " = vmess",
		p.Server,
		strconv.Itoa(p.Port),
		"username=" + p.UUID,
	}
	if p.AlterID == 0 {
		parts = append(parts, "vmess-aead=true")
	}
	if p.TLS {
		parts = append(parts, "tls=true")
		if p.SNI != "" {
			parts = append(parts, "sni="+p.SNI)
		}
	}
	if p.Tunneled() {
		parts = append(parts, "ws=true")
		if p.WSPath != "" {
			parts = append(parts, "ws-path="+p.WSPath)
		}
		if p.WSHost != "" {
			parts = append(parts, "ws-headers=Host:"+p.WSHost)
		}
	}
	return strings.Join(parts, ", ")
}

func surgeTrojan(p proxy.Proxy) string {
	parts := []string{
		p.Name + " = trojan",
		p.Server,
		strconv.Itoa(p.Port),
		"password=" + p.Password,
	}
	if p.SNI != "" {
		parts = append(parts, "sni="+p.SNI)
	}
	return strings.Join(parts, ", ")
}
