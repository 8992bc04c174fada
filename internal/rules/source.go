// 文件路径: internal/rules/source.go
// 模块说明: 这是 internal 模块里的 source 逻辑，根据策略里引用的规则集推导出需要下载的上游文件。
package rules

import (
	"fmt"
	"path"
	"strings"

	"github.com/creamcroissant/autoconvert/internal/policy"
)

// DefaultUpstream 是规则集的上游地址。
const DefaultUpstream = "https://ruleset.skk.moe"

// Target 是规则文件所属的客户端目录。
type Target string

const (
	TargetSurge Target = "surge"
	TargetClash Target = "clash"
)

// Ext 返回该目录下规则文件的扩展名。
func (t Target) Ext() string {
	if t == TargetClash {
		return "txt"
	}
	return "conf"
}

// upstreamDir 是上游仓库里对应客户端的目录名。
func (t Target) upstreamDir() string {
	if t == TargetClash {
		return "Clash"
	}
	return "List"
}

// Source 是一份待下载的规则文件。
type Source struct {
	Name     string
	Target   Target
	Category policy.Category
	File     string
	URL      string
}

// Path 返回写入规则目录时的相对路径，与配置里引用的位置一致。
func (s Source) Path() string {
	return path.Join(string(s.Target), string(s.Category), s.File+"."+s.Target.Ext())
}

// Header 返回写在规则文件顶部的说明。
func (s Source) Header(generatedAt string) string {
	return fmt.Sprintf("# %s Rules (%s)\n# Generated at %s\n# Source: %s\n\n",
		strings.ToUpper(s.Name), strings.ToUpper(string(s.Target)), generatedAt, s.URL)
}

// DefaultSources 为策略引用的每个规则集生成 Surge 与 Clash 两份下载来源。
func DefaultSources(pol *policy.Policy, upstream string) []Source {
	if pol == nil {
		pol = policy.Default()
	}
	upstream = strings.TrimRight(strings.TrimSpace(upstream), "/")
	if upstream == "" {
		upstream = DefaultUpstream
	}
	var sources []Source
	for _, target := range []Target{TargetSurge, TargetClash} {
		seen := make(map[string]bool)
		for _, rule := range pol.RuleSets() {
			src := Source{
				Name:     rule.Provider,
				Target:   target,
				Category: rule.Category,
				File:     rule.File,
			}
			if seen[src.Path()] {
				continue
			}
			seen[src.Path()] = true
			src.URL = fmt.Sprintf("%s/%s/%s/%s.%s", upstream, target.upstreamDir(), rule.Category, rule.File, target.Ext())
			sources = append(sources, src)
		}
	}
	return sources
}
