// 文件路径: internal/protocol/clash.go
// 模块说明: 这是 internal 模块里的 clash 逻辑，把节点、策略组与 rule-providers 渲染成 Clash YAML。
package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/autoconvert/internal/policy"
	"github.com/creamcroissant/autoconvert/internal/proxy"
)

const (
	clashRuleExt                = "txt"
	defaultClashProviderTTL     = 86400
	defaultClashProviderPathFmt = "./ruleset/%s.yaml"
)

// ClashDNS 对应顶层 dns 段。
type ClashDNS struct {
	Enable     bool     `yaml:"enable"`
	Nameserver []string `yaml:"nameserver"`
	Fallback   []string `yaml:"fallback"`
}

// ClashGeneral 是 proxies 之前的顶层设置。
type ClashGeneral struct {
	Port               int
	SocksPort          int
	AllowLAN           bool
	Mode               string
	LogLevel           string
	ExternalController string
	DNS                ClashDNS
}

// DefaultClashGeneral 返回默认的顶层设置。
func DefaultClashGeneral() ClashGeneral {
	return ClashGeneral{
		Port:               7890,
		SocksPort:          7891,
		Mode:               "rule",
		LogLevel:           "info",
		ExternalController: "127.0.0.1:9090",
		DNS: ClashDNS{
			Enable:     true,
			Nameserver: []string{"119.29.29.29", "223.5.5.5"},
			Fallback:   []string{"8.8.8.8", "1.1.1.1"},
		},
	}
}

// ClashOptions 配置 Clash 构建器，零值字段使用默认值。
type ClashOptions struct {
	General          *ClashGeneral
	ProviderInterval int
	ProfileName      string
}

type ClashBuilder struct {
	base             *BaseBuilder
	general          ClashGeneral
	providerInterval int
	profile          string
}

func NewClashBuilder(opts ClashOptions) *ClashBuilder {
	base := NewBaseBuilder()
	base.Allow(proxy.KindShadowsocks, proxy.KindVmess, proxy.KindTrojan)
	general := DefaultClashGeneral()
	if opts.General != nil {
		general = *opts.General
	}
	interval := opts.ProviderInterval
	if interval <= 0 {
		interval = defaultClashProviderTTL
	}
	profile := strings.TrimSpace(opts.ProfileName)
	if profile == "" {
		profile = defaultProfileName
	}
	return &ClashBuilder{base: base, general: general, providerInterval: interval, profile: profile}
}

func (b *ClashBuilder) Format() Format {
	return FormatClash
}

func (b *ClashBuilder) Flags() []string {
	return []string{"clash", "mihomo", "stash"}
}

type clashDocument struct {
	Port               int          `yaml:"port"`
	SocksPort          int          `yaml:"socks-port"`
	AllowLAN           bool         `yaml:"allow-lan"`
	Mode               string       `yaml:"mode"`
	LogLevel           string       `yaml:"log-level"`
	ExternalController string       `yaml:"external-controller"`
	DNS                ClashDNS     `yaml:"dns"`
	Proxies            []any        `yaml:"proxies"`
	ProxyGroups        []clashGroup `yaml:"proxy-groups"`
	RuleProviders      *yaml.Node   `yaml:"rule-providers"`
	Rules              *yaml.Node   `yaml:"rules"`
}

type clashGroup struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Proxies  []string `yaml:"proxies"`
	URL      string   `yaml:"url,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
}

type clashProvider struct {
	Type     string `yaml:"type"`
	Behavior string `yaml:"behavior"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval"`
}

type clashVmess struct {
	Name       string       `yaml:"name"`
	Type       string       `yaml:"type"`
	Server     string       `yaml:"server"`
	Port       int          `yaml:"port"`
	UUID       string       `yaml:"uuid"`
	AlterID    int          `yaml:"alterId"`
	Cipher     string       `yaml:"cipher"`
	TLS        bool         `yaml:"tls,omitempty"`
	ServerName string       `yaml:"servername,omitempty"`
	Network    string       `yaml:"network,omitempty"`
	WSOpts     *clashWSOpts `yaml:"ws-opts,omitempty"`
}

type clashWSOpts struct {
	Path    string            `yaml:"path,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

type clashShadowsocks struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Cipher   string `yaml:"cipher"`
	Password string `yaml:"password"`
}

type clashTrojan struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	SNI      string `yaml:"sni,omitempty"`
}

func (b *ClashBuilder) Build(req BuildRequest) (*Result, error) {
	pol := req.policy()
	proxies, excluded := b.base.FilterProxies(req)
	entries := make([]any, 0, len(proxies))
	proxyNames := make([]string, 0, len(proxies))
	for _, p := range proxies {
		entry := buildClashProxy(p)
		if entry == nil {
			excluded++
			continue
		}
		entries = append(entries, entry)
		proxyNames = append(proxyNames, p.Name)
	}

	groups := pol.Groups(proxyNames)
	clashGroups := make([]clashGroup, 0, len(groups))
	for _, g := range groups {
		clashGroups = append(clashGroups, clashGroup{
			Name:     g.Name,
			Type:     string(g.Type),
			Proxies:  g.Members,
			URL:      g.TestURL,
			Interval: g.Interval,
		})
	}

	providers, err := b.ruleProviders(pol)
	if err != nil {
		return nil, err
	}
	g := b.general
	doc := clashDocument{
		Port:               g.Port,
		SocksPort:          g.SocksPort,
		AllowLAN:           g.AllowLAN,
		Mode:               g.Mode,
		LogLevel:           g.LogLevel,
		ExternalController: g.ExternalController,
		DNS:                g.DNS,
		Proxies:            entries,
		ProxyGroups:        clashGroups,
		RuleProviders:      providers,
		Rules:              clashRules(pol),
	}

	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "# Generated at %s\n# %s\n", req.timestamp(), defaultBanner)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode clash document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode clash document: %w", err)
	}
	return &Result{
		Format:      FormatClash,
		Payload:     buf.Bytes(),
		ContentType: "text/yaml; charset=utf-8",
		Headers:     attachmentHeaders(b.profile, FormatClash),
		Rendered:    len(entries),
		Excluded:    excluded,
	}, nil
}

// ruleProviders 以有序映射输出，保持与规则顺序一致。
func (b *ClashBuilder) ruleProviders(pol *policy.Policy) (*yaml.Node, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, rule := range pol.RuleSets() {
		value := &yaml.Node{}
		provider := clashProvider{
			Type:     "http",
			Behavior: rule.Category.Behavior(),
			URL:      pol.RuleURL(rule, string(FormatClash), clashRuleExt),
			Path:     fmt.Sprintf(defaultClashProviderPathFmt, rule.Provider),
			Interval: b.providerInterval,
		}
		if err := value.Encode(provider); err != nil {
			return nil, fmt.Errorf("encode rule provider %s: %w", rule.Provider, err)
		}
		mapping.Content = append(mapping.Content, stringNode(rule.Provider), value)
	}
	return mapping, nil
}

func clashRules(pol *policy.Policy) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rule := range pol.Rules {
		var line string
		if rule.Inline() {
			line = fmt.Sprintf("IP-CIDR,%s,%s", rule.CIDR, rule.Target)
		} else {
			line = fmt.Sprintf("RULE-SET,%s,%s", rule.Provider, rule.Target)
		}
		node := stringNode(line)
		if rule.Section != "" {
			node.HeadComment = "# " + rule.Section
		}
		seq.Content = append(seq.Content, node)
	}
	seq.Content = append(seq.Content, stringNode("MATCH,"+pol.Final))
	return seq
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func buildClashProxy(p proxy.Proxy) any {
	switch p.Kind {
	case proxy.KindShadowsocks:
		return clashShadowsocks{
			Name:     p.Name,
			Type:     "ss",
			Server:   p.Server,
			Port:     p.Port,
			Cipher:   p.Cipher,
			Password: p.Password,
		}
	case proxy.KindVmess:
		return buildClashVmess(p)
	case proxy.KindTrojan:
		return clashTrojan{
			Name:     p.Name,
			Type:     "trojan",
			Server:   p.Server,
			Port:     p.Port,
			Password: p.Password,
			SNI:      p.SNI,
		}
	default:
		return nil
	}
}

func buildClashVmess(p proxy.Proxy) clashVmess {
	out := clashVmess{
		Name:    p.Name,
		Type:    "vmess",
		Server:  p.Server,
		Port:    p.Port,
		UUID:    p.UUID,
		AlterID: p.AlterID,
		Cipher:  p.Cipher,
	}
	if p.TLS {
		out.TLS = true
		out.ServerName = p.SNI
	}
	if p.Tunneled() {
		out.Network = "ws"
		opts := &clashWSOpts{Path: p.WSPath}
		if p.WSHost != "" {
			opts.Headers = map[string]string{"Host": p.WSHost}
		}
		out.WSOpts = opts
	}
	return out
}
