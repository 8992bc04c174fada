package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/creamcroissant/autoconvert/internal/converter"
)

// RenderTable 以静态表格输出转换结果，供非交互的 inspect 使用
func RenderTable(out *converter.Outcome) string {
	entries := Entries(out)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("#", "STATUS", "NAME", "KIND", "SERVER", "NOTE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for i, e := range entries {
		server := ""
		if e.Proxy != nil {
			server = e.Proxy.Server + ":" + strconv.Itoa(e.Proxy.Port)
		}
		note := ""
		switch e.Status {
		case StatusExcluded:
			note = "missing " + strings.Join(e.Missing, ",")
		case StatusFailed:
			note = e.Failure.Reason()
		}
		t.Row(strconv.Itoa(i+1), string(e.Status), e.Title(), e.Kind(), server, note)
	}
	return t.Render()
}
