package policy

import "fmt"

// Category 是规则集所在的目录，也决定 Clash provider 的 behavior。
type Category string

const (
	CategoryNonIP     Category = "non_ip"
	CategoryIP        Category = "ip"
	CategoryDomainSet Category = "domainset"
)

// Behavior 返回 Clash rule-provider 的 behavior 字段。
func (c Category) Behavior() string {
	if c == CategoryDomainSet {
		return "domain"
	}
	return "classical"
}

// Rule 是一条分流规则：要么引用远程规则集，要么是内联的 IP-CIDR。
type Rule struct {
	// Section 是规则分段的说明，只在分段第一条上出现。
	Section string
	// Provider 是 Clash rule-provider 的名称。
	Provider string
	Category Category
	File     string
	CIDR     string
	Target   string
}

// Inline 判断规则是否为内联 IP-CIDR。
func (r Rule) Inline() bool {
	return r.CIDR != ""
}

// Location 拼出规则集文件相对规则根目录的路径，例如 surge/non_ip/ai.conf。
func (r Rule) Location(target, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", target, r.Category, r.File, ext)
}

// RuleURL 返回规则集在指定格式下的远程地址。
func (p *Policy) RuleURL(r Rule, target, ext string) string {
	return p.RuleBaseURL + "/" + r.Location(target, ext)
}

func ruleSet(section, provider string, category Category, file, target string) Rule {
	return Rule{Section: section, Provider: provider, Category: category, File: file, Target: target}
}

func cidr(section, block string) Rule {
	return Rule{Section: section, CIDR: block, Target: GroupDirect}
}

// defaultRules 的顺序即匹配优先级。
var defaultRules = []Rule{
	ruleSet("GitHub服务 (DNS解析: 否) - 优先处理避免DNS污染", "github", CategoryNonIP, "github", GroupSelect),

	ruleSet("本地/局域网地址 (DNS解析: 是/否)", "lan_ip", CategoryIP, "lan", GroupDirect),
	ruleSet("", "lan_non_ip", CategoryNonIP, "lan", GroupDirect),

	ruleSet("拦截规则 (DNS解析: 否/是)", "reject_domainset", CategoryDomainSet, "reject", GroupReject),
	ruleSet("", "reject_extra", CategoryDomainSet, "reject_extra", GroupReject),
	ruleSet("", "reject_phishing", CategoryDomainSet, "reject_phishing", GroupReject),
	ruleSet("", "reject_non_ip", CategoryNonIP, "reject", GroupReject),
	ruleSet("", "reject_drop", CategoryNonIP, "reject_drop", GroupReject),
	ruleSet("", "reject_no_drop", CategoryNonIP, "reject_no_drop", GroupAdBlock),
	ruleSet("", "reject_ip", CategoryIP, "reject", GroupReject),

	ruleSet("AI服务 (DNS解析: 否)", "ai", CategoryNonIP, "ai", GroupAI),

	ruleSet("电报消息 (DNS解析: 否/是)", "telegram_non_ip", CategoryNonIP, "telegram", GroupTelegram),
	ruleSet("", "telegram_ip", CategoryIP, "telegram", GroupTelegram),

	ruleSet("流媒体 (DNS解析: 否/是)", "stream_non_ip", CategoryNonIP, "stream", GroupStream),
	ruleSet("", "stream_us", CategoryNonIP, "stream_us", GroupStream),
	ruleSet("", "stream_eu", CategoryNonIP, "stream_eu", GroupStream),
	ruleSet("", "stream_jp", CategoryNonIP, "stream_jp", GroupStream),
	ruleSet("", "stream_kr", CategoryNonIP, "stream_kr", GroupStream),
	ruleSet("", "stream_hk", CategoryNonIP, "stream_hk", GroupStream),
	ruleSet("", "stream_tw", CategoryNonIP, "stream_tw", GroupStream),
	ruleSet("", "stream_ip", CategoryIP, "stream", GroupStream),

	ruleSet("微软服务 (DNS解析: 否)", "microsoft_non_ip", CategoryNonIP, "microsoft", GroupMicrosoft),
	ruleSet("", "microsoft_cdn", CategoryNonIP, "microsoft_cdn", GroupMicrosoft),

	ruleSet("苹果服务 (DNS解析: 否)", "apple_services", CategoryNonIP, "apple_services", GroupApple),
	ruleSet("", "apple_cn", CategoryNonIP, "apple_cn", GroupApple),
	ruleSet("", "apple_cdn", CategoryNonIP, "apple_cdn", GroupApple),

	ruleSet("网易云音乐 (DNS解析: 否/是)", "neteasemusic_non_ip", CategoryNonIP, "neteasemusic", GroupDirect),
	ruleSet("", "neteasemusic_ip", CategoryIP, "neteasemusic", GroupDirect),

	ruleSet("隐私保护 (DNS解析: 否)", "sogouinput", CategoryNonIP, "sogouinput", GroupReject),

	ruleSet("CDN优化 (DNS解析: 否/是)", "cdn_domainset", CategoryDomainSet, "cdn", GroupDirect),
	ruleSet("", "cdn_non_ip", CategoryNonIP, "cdn", GroupDirect),
	ruleSet("", "cdn_ip", CategoryIP, "cdn", GroupDirect),

	ruleSet("下载优化 (DNS解析: 否/是)", "download_domainset", CategoryDomainSet, "download", GroupDirect),
	ruleSet("", "download_non_ip", CategoryNonIP, "download", GroupDirect),
	ruleSet("", "download_ip", CategoryIP, "download", GroupDirect),

	ruleSet("国内服务 (DNS解析: 否/是)", "domestic_non_ip", CategoryNonIP, "domestic", GroupDirect),
	ruleSet("", "domestic_ip", CategoryIP, "domestic", GroupDirect),

	ruleSet("全球代理 (DNS解析: 否)", "global", CategoryNonIP, "global", GroupSelect),

	ruleSet("直连服务 (DNS解析: 否)", "direct", CategoryNonIP, "direct", GroupDirect),

	ruleSet("中国IP (DNS解析: 是)", "china_ip", CategoryIP, "china_ip", GroupDirect),

	cidr("私有IP段", "192.168.0.0/16"),
	cidr("", "10.0.0.0/8"),
	cidr("", "172.16.0.0/12"),
	cidr("", "127.0.0.0/8"),
}

// RuleSets 返回引用远程规则集的规则，按首次出现去重。
func (p *Policy) RuleSets() []Rule {
	seen := make(map[string]bool)
	var out []Rule
	for _, r := range p.Rules {
		if r.Inline() || seen[r.Provider] {
			continue
		}
		seen[r.Provider] = true
		out = append(out, r)
	}
	return out
}
