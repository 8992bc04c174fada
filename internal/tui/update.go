package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case outcomeLoadedMsg:
		m.loading = false
		m.err = nil
		m.entries = Entries(msg.out)
		m.skipped = 0
		if msg.out != nil {
			m.skipped = msg.out.Batch.Skipped
		}
		if m.selected >= len(m.entries) {
			m.selected = 0
		}
		if m.view == ViewProxyDetail {
			m.view = ViewProxyList
			m.detail = nil
		}
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.handleUp()

	case key.Matches(msg, m.keys.Down):
		return m.handleDown()

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Back):
		return m.handleBack()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadOutcome()

	case key.Matches(msg, m.keys.Reveal):
		m.reveal = !m.reveal
		return m, nil
	}

	return m, nil
}

func (m Model) handleUp() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewProxyList:
		if len(m.entries) > 0 {
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.entries) - 1
			}
		}
	case ViewProxyDetail:
		if m.detailScrollOffset > 0 {
			m.detailScrollOffset--
		}
	}
	return m, nil
}

func (m Model) handleDown() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewProxyList:
		if len(m.entries) > 0 {
			m.selected++
			if m.selected >= len(m.entries) {
				m.selected = 0
			}
		}
	case ViewProxyDetail:
		if m.detailScrollOffset < m.maxDetailScroll() {
			m.detailScrollOffset++
		}
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.view == ViewProxyList && len(m.entries) > 0 {
		m.detail = &m.entries[m.selected]
		m.view = ViewProxyDetail
		m.detailScrollOffset = 0
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	if m.view == ViewProxyDetail {
		m.view = ViewProxyList
		m.detail = nil
	}
	return m, nil
}
