package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/proxy"
	"github.com/creamcroissant/autoconvert/internal/subscribe"
)

func sampleOutcome() *converter.Outcome {
	return &converter.Outcome{
		Batch: subscribe.Batch{
			Proxies: []proxy.Proxy{
				{Kind: proxy.KindTrojan, Name: "Edge", Server: "host.example", Port: 443, Password: "supersecret"},
				{Kind: proxy.KindTrojan, Name: "Zero", Server: "zero.example", Port: 0, Password: "pw"},
			},
			Failures: []*subscribe.ParseError{{Index: 3, Kind: proxy.KindVmess, Err: subscribe.ErrBadBase64}},
			Skipped:  1,
		},
	}
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestEntries(t *testing.T) {
	entries := Entries(sampleOutcome())
	require.Len(t, entries, 3)
	assert.Equal(t, StatusValid, entries[0].Status)
	assert.Equal(t, StatusExcluded, entries[1].Status)
	assert.Equal(t, []string{"port"}, entries[1].Missing)
	assert.Equal(t, StatusFailed, entries[2].Status)
	assert.Equal(t, "link #3", entries[2].Title())
	assert.Equal(t, "vmess", entries[2].Kind())
	assert.Nil(t, Entries(nil))
}

func TestModelNavigation(t *testing.T) {
	var m tea.Model = NewModel(nil, sampleOutcome())
	assert.Nil(t, m.Init())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	list := m.View()
	assert.Contains(t, list, "Subscription Inspector")
	assert.Contains(t, list, "Edge")
	assert.Contains(t, list, "missing port")
	assert.Contains(t, list, "Skipped: 1")

	// 向上循环到最后一行
	m = press(m, "up")
	assert.Equal(t, 2, m.(Model).selected)
	m = press(m, "down", "enter")
	assert.Equal(t, ViewProxyDetail, m.(Model).view)

	detail := m.View()
	assert.Contains(t, detail, "supe*******")
	assert.NotContains(t, detail, "supersecret")

	m = press(m, "s")
	assert.Contains(t, m.View(), "supersecret")

	m = press(m, "esc")
	assert.Equal(t, ViewProxyList, m.(Model).view)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelReload(t *testing.T) {
	calls := 0
	load := func(context.Context) (*converter.Outcome, error) {
		calls++
		if calls == 1 {
			return sampleOutcome(), converter.ErrNoValidProxies
		}
		return nil, errors.New("network down")
	}
	var m tea.Model = NewModel(load, nil)
	cmd := m.Init()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Len(t, m.(Model).entries, 3)
	assert.NoError(t, m.(Model).err)

	m = press(m, "r")
	assert.True(t, m.(Model).loading)
	m, _ = m.Update(m.(Model).loadOutcome()())
	assert.EqualError(t, m.(Model).err, "network down")
	assert.Len(t, m.(Model).entries, 3)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleOutcome())
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "host.example:443")
	assert.Contains(t, out, "excluded")
	assert.Contains(t, out, "link #3")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "***", Mask("abc"))
	assert.Equal(t, "b831********", Mask("b831381d-6324-4d53-ad4f-8cda48b30811"))
	assert.Equal(t, "abcd*", Mask("abcde"))
}
