package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsWithProxies(t *testing.T) {
	p := Default()
	groups := p.Groups([]string{"A", "B"})
	require.Len(t, groups, 13)

	byName := make(map[string]Group)
	for _, g := range groups {
		byName[g.Name] = g
	}
	assert.Equal(t, []string{GroupAuto, "A", "B"}, byName[GroupSelect].Members)
	assert.Equal(t, []string{"A", "B"}, byName[GroupAuto].Members)
	assert.Equal(t, TypeURLTest, byName[GroupAuto].Type)
	assert.Equal(t, DefaultTestURL, byName[GroupAuto].TestURL)
	assert.Equal(t, DefaultInterval, byName[GroupAuto].Interval)
	assert.Equal(t, []string{GroupSelect, GroupAuto, "A", "B"}, byName[GroupAI].Members)
	assert.Equal(t, []string{Direct, GroupSelect, GroupAuto, "A", "B"}, byName[GroupFCM].Members)
	assert.Equal(t, []string{Direct, GroupSelect}, byName[GroupDirect].Members)
	assert.Equal(t, []string{GroupSelect, GroupAuto, Direct}, byName[GroupFinal].Members)
	assert.Equal(t, GroupNames(), namesOf(groups))
}

func TestGroupsWithoutProxies(t *testing.T) {
	groups := Default().Groups(nil)
	require.Equal(t, []string{GroupDirect, GroupReject, GroupAdBlock, GroupFinal}, namesOf(groups))
	for _, g := range groups {
		assert.NotEmpty(t, g.Members, g.Name)
		assert.NotContains(t, g.Members, GroupSelect)
		assert.NotContains(t, g.Members, GroupAuto)
	}
	assert.Equal(t, []string{Direct}, groups[0].Members)
	assert.Equal(t, []string{Direct}, groups[3].Members)
}

func TestRuleTargetsResolve(t *testing.T) {
	p := Default()
	known := map[string]bool{Direct: true, Reject: true}
	for _, name := range GroupNames() {
		known[name] = true
	}
	for _, r := range p.Rules {
		assert.True(t, known[r.Target], "rule %+v targets unknown group", r)
		if r.Inline() {
			assert.Empty(t, r.Provider)
			continue
		}
		assert.NotEmpty(t, r.Provider)
		assert.NotEmpty(t, r.File)
	}
	assert.Equal(t, GroupFinal, p.Final)
	require.Len(t, p.Rules, 44)
	assert.Len(t, p.RuleSets(), 40)
	assert.Equal(t, "github", p.Rules[0].Provider)
	assert.Equal(t, "127.0.0.0/8", p.Rules[len(p.Rules)-1].CIDR)
}

func TestRuleLocationAndBehavior(t *testing.T) {
	r := Rule{Category: CategoryDomainSet, File: "reject"}
	assert.Equal(t, "clash/domainset/reject.txt", r.Location("clash", "txt"))
	assert.Equal(t, "domain", r.Category.Behavior())
	assert.Equal(t, DefaultRuleBaseURL+"/clash/domainset/reject.txt", Default().RuleURL(r, "clash", "txt"))
	custom := New(Options{RuleBaseURL: "https://rules.example/"})
	assert.Equal(t, "https://rules.example/surge/domainset/reject.conf", custom.RuleURL(r, "surge", "conf"))
	assert.Equal(t, "classical", CategoryIP.Behavior())
}

func TestNewCopiesRules(t *testing.T) {
	a := New(Options{TestURL: "http://cp.example/204", Interval: 60})
	a.Rules[0].Target = Direct
	b := Default()
	assert.Equal(t, GroupSelect, b.Rules[0].Target)
	assert.Equal(t, "http://cp.example/204", a.TestURL)
	assert.Equal(t, 60, a.Interval)
}

func namesOf(groups []Group) []string {
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}
