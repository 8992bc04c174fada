package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var errNoLoader = errors.New("tui: no loader configured / 未配置加载函数")

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.view == ViewProxyDetail && m.detail != nil {
		return m.renderDetailView()
	}
	return m.renderListView()
}

func (m Model) renderListView() string {
	var b strings.Builder

	b.WriteString(styleHeader.Width(m.width).Render("  Subscription Inspector"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleFailed.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n\n")
	}

	tableHeader := fmt.Sprintf("  %-4s │ %-24s │ %-7s │ %-28s │ %s", "#", "Name", "Kind", "Server", "Note")
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString(styleMuted().Render("  No proxy links found in subscription."))
		b.WriteString("\n")
	} else {
		visibleRows := m.height - 10
		if visibleRows < 5 {
			visibleRows = 5
		}
		startIdx := 0
		if m.selected >= visibleRows {
			startIdx = m.selected - visibleRows + 1
		}
		endIdx := min(startIdx+visibleRows, len(m.entries))

		for i := startIdx; i < endIdx; i++ {
			b.WriteString(m.renderRow(i, m.entries[i], i == m.selected))
			b.WriteString("\n")
		}
		if len(m.entries) > visibleRows {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  Showing %d-%d of %d entries", startIdx+1, endIdx, len(m.entries))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Navigate  [Enter] Details  [r] Reload  [q] Quit"))
	return b.String()
}

func (m Model) renderRow(idx int, e Entry, selected bool) string {
	server := ""
	note := ""
	switch e.Status {
	case StatusExcluded:
		note = "missing " + strings.Join(e.Missing, ",")
	case StatusFailed:
		note = e.Failure.Reason()
	}
	if e.Proxy != nil {
		server = e.Proxy.Server + ":" + strconv.Itoa(e.Proxy.Port)
	}
	row := fmt.Sprintf("  %-4d │ %s %-22s │ %-7s │ %-28s │ %s",
		idx+1,
		StatusIcon(e.Status),
		truncate(e.Title(), 22),
		e.Kind(),
		truncate(server, 28),
		note,
	)
	if selected {
		return styleTableRowSelected.Width(m.width).Render("▶" + row[1:])
	}
	return styleTableRow.Render(row)
}

func (m Model) renderSummary() string {
	valid, excluded, failed := 0, 0, 0
	for _, e := range m.entries {
		switch e.Status {
		case StatusValid:
			valid++
		case StatusExcluded:
			excluded++
		case StatusFailed:
			failed++
		}
	}
	return fmt.Sprintf(
		"  %s %d Valid  %s %d Excluded  %s %d Failed  │  Skipped: %d",
		styleValid.Render("●"), valid,
		styleExcluded.Render("◐"), excluded,
		styleFailed.Render("○"), failed,
		m.skipped,
	)
}

func (m Model) renderDetailView() string {
	var b strings.Builder
	b.WriteString(styleHeader.Width(m.width).Render("  " + m.detail.Title()))
	b.WriteString("\n\n")

	lines := m.detailLines()
	viewport := m.detailViewport()
	start := min(m.detailScrollOffset, max(len(lines)-viewport, 0))
	end := min(start+viewport, len(lines))

	box := styleDetailBox.Width(max(m.width-4, 20)).Render(strings.Join(lines[start:end], "\n"))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Scroll  [s] Show/Hide secrets  [Esc] Back  [q] Quit"))
	return b.String()
}

func (m Model) detailLines() []string {
	e := m.detail
	lines := []string{row("Status", StatusLabel(e.Status)), row("Kind", e.Kind())}
	if e.Failure != nil {
		lines = append(lines,
			row("Index", strconv.Itoa(e.Failure.Index)),
			row("Reason", e.Failure.Reason()),
		)
		return lines
	}
	p := e.Proxy
	lines = append(lines,
		row("Name", p.Name),
		row("Server", p.Server),
		row("Port", strconv.Itoa(p.Port)),
	)
	if p.UUID != "" {
		lines = append(lines, row("UUID", m.secret(p.UUID)), row("AlterID", strconv.Itoa(p.AlterID)))
	}
	if p.Password != "" {
		lines = append(lines, row("Password", m.secret(p.Password)))
	}
	if p.Cipher != "" {
		lines = append(lines, row("Cipher", p.Cipher))
	}
	if p.Network != "" {
		lines = append(lines, row("Network", p.Network))
	}
	if p.TLS {
		lines = append(lines, row("TLS", "on"))
	}
	if p.SNI != "" {
		lines = append(lines, row("SNI", p.SNI))
	}
	if p.Tunneled() {
		lines = append(lines, row("WS Path", p.WSPath), row("WS Host", p.WSHost))
	}
	if len(e.Missing) > 0 {
		lines = append(lines, row("Missing", strings.Join(e.Missing, ", ")))
	}
	return lines
}

func (m Model) detailViewport() int {
	return max(m.height-8, 5)
}

func (m Model) maxDetailScroll() int {
	if m.detail == nil {
		return 0
	}
	return max(len(m.detailLines())-m.detailViewport(), 0)
}

func (m Model) secret(value string) string {
	if m.reveal {
		return value
	}
	return Mask(value)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, styleLabel.Render(label), styleValue.Render(value))
}

// Mask 只保留前四个字符，其余用星号代替
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("*", min(len(runes)-4, 8))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
