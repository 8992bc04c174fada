// 文件路径: internal/policy/policy.go
// 模块说明: 固定的分流策略拓扑：策略组、规则集顺序与兜底规则，两种输出格式共用。
package policy

import "strings"

// 内置出站，不需要定义成策略组。
const (
	Direct = "DIRECT"
	Reject = "REJECT"
)

const (
	GroupSelect    = "🚀 节点选择"
	GroupAuto      = "♻️ 自动选择"
	GroupAI        = "🤖 人工智能"
	GroupTelegram  = "📲 电报消息"
	GroupStream    = "🎥 流媒体"
	GroupGame      = "🎮 游戏平台"
	GroupMicrosoft = "Ⓜ️ 微软服务"
	GroupApple     = "🍎 苹果服务"
	GroupFCM       = "📢 谷歌FCM"
	GroupDirect    = "🎯 全球直连"
	GroupReject    = "🛑 全球拦截"
	GroupAdBlock   = "🍃 应用净化"
	GroupFinal     = "🐟 漏网之鱼"
)

const (
	DefaultTestURL     = "http://www.google.com/generate_204"
	DefaultInterval    = 300
	DefaultRuleBaseURL = "https://raw.githubusercontent.com/onlinefchen/auto-convert/main/rules"
)

// GroupType 是策略组的选择方式。
type GroupType string

const (
	TypeSelect  GroupType = "select"
	TypeURLTest GroupType = "url-test"
)

// Group 是渲染前的策略组定义，Members 已展开节点名称。
type Group struct {
	Name    string
	Type    GroupType
	Members []string
	// 仅 url-test 使用
	TestURL  string
	Interval int
}

type groupSpec struct {
	name        string
	typ         GroupType
	lead        []string
	withProxies bool
}

var groupSpecs = []groupSpec{
	{GroupSelect, TypeSelect, []string{GroupAuto}, true},
	{GroupAuto, TypeURLTest, nil, true},
	{GroupAI, TypeSelect, []string{GroupSelect, GroupAuto}, true},
	{GroupTelegram, TypeSelect, []string{GroupSelect, GroupAuto}, true},
	{GroupStream, TypeSelect, []string{GroupSelect, GroupAuto}, true},
	{GroupGame, TypeSelect, []string{Direct, GroupSelect, GroupAuto}, true},
	{GroupMicrosoft, TypeSelect, []string{Direct, GroupSelect, GroupAuto}, true},
	{GroupApple, TypeSelect, []string{Direct, GroupSelect, GroupAuto}, true},
	{GroupFCM, TypeSelect, []string{Direct, GroupSelect, GroupAuto}, true},
	{GroupDirect, TypeSelect, []string{Direct, GroupSelect}, false},
	{GroupReject, TypeSelect, []string{Reject, Direct}, false},
	{GroupAdBlock, TypeSelect, []string{Reject, Direct}, false},
	{GroupFinal, TypeSelect, []string{GroupSelect, GroupAuto, Direct}, false},
}

// Options 调整策略中可配置的部分。
type Options struct {
	TestURL  string
	Interval int
	// RuleBaseURL 是规则集文件的根地址，下面按 <格式>/<目录>/<文件> 组织。
	RuleBaseURL string
}

// Policy 描述一次渲染使用的完整分流拓扑。
type Policy struct {
	TestURL     string
	Interval    int
	RuleBaseURL string
	Rules       []Rule
	// Final 是兜底规则指向的策略组。
	Final string
}

// Default returns the stock topology.
func Default() *Policy {
	return New(Options{})
}

// New 使用给定选项构建策略，零值字段使用默认值。
func New(opts Options) *Policy {
	testURL := strings.TrimSpace(opts.TestURL)
	if testURL == "" {
		testURL = DefaultTestURL
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	base := strings.TrimRight(strings.TrimSpace(opts.RuleBaseURL), "/")
	if base == "" {
		base = DefaultRuleBaseURL
	}
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return &Policy{
		TestURL:     testURL,
		Interval:    interval,
		RuleBaseURL: base,
		Rules:       rules,
		Final:       GroupFinal,
	}
}

// Groups 按固定顺序展开策略组。
// 没有可用节点时只输出基础组，并剔除指向未输出策略组的成员。
func (p *Policy) Groups(proxyNames []string) []Group {
	hasProxies := len(proxyNames) > 0
	emitted := map[string]bool{Direct: true, Reject: true}
	for _, spec := range groupSpecs {
		if spec.withProxies && !hasProxies {
			continue
		}
		emitted[spec.name] = true
	}

	groups := make([]Group, 0, len(groupSpecs))
	for _, spec := range groupSpecs {
		if !emitted[spec.name] {
			continue
		}
		members := make([]string, 0, len(spec.lead)+len(proxyNames))
		for _, m := range spec.lead {
			if emitted[m] {
				members = append(members, m)
			}
		}
		if spec.withProxies {
			members = append(members, proxyNames...)
		}
		if len(members) == 0 {
			continue
		}
		g := Group{Name: spec.name, Type: spec.typ, Members: members}
		if spec.typ == TypeURLTest {
			g.TestURL = p.TestURL
			g.Interval = p.Interval
		}
		groups = append(groups, g)
	}
	return groups
}

// GroupNames 返回全部可能出现的策略组名称。
func GroupNames() []string {
	names := make([]string, 0, len(groupSpecs))
	for _, spec := range groupSpecs {
		names = append(names, spec.name)
	}
	return names
}
