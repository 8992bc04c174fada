// 文件路径: internal/tui/model.go
// 模块说明: 这是 internal 模块里的 model 逻辑，交互式浏览一次订阅解析出的全部节点。
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/proxy"
	"github.com/creamcroissant/autoconvert/internal/subscribe"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewProxyList   ViewType = iota // 节点列表
	ViewProxyDetail                 // 节点详情
)

// EntryStatus 表示节点在本次转换中的去向
type EntryStatus string

const (
	StatusValid    EntryStatus = "valid"
	StatusExcluded EntryStatus = "excluded"
	StatusFailed   EntryStatus = "failed"
)

// Entry 是列表中的一行：解析成功的节点或解析失败的链接
type Entry struct {
	Status  EntryStatus
	Proxy   *proxy.Proxy
	Missing []string
	Failure *subscribe.ParseError
}

// Title 返回列表中显示的名称
func (e Entry) Title() string {
	if e.Proxy != nil {
		return e.Proxy.Name
	}
	if e.Failure != nil {
		return "link #" + itoa(e.Failure.Index)
	}
	return ""
}

// Kind 返回协议短名
func (e Entry) Kind() string {
	switch {
	case e.Proxy != nil:
		return e.Proxy.Kind.String()
	case e.Failure != nil:
		return e.Failure.Kind.String()
	default:
		return "unknown"
	}
}

// Entries 把转换结果展开成列表，解析成功的节点在前，失败的链接按序号在后
func Entries(out *converter.Outcome) []Entry {
	if out == nil {
		return nil
	}
	entries := make([]Entry, 0, len(out.Batch.Proxies)+len(out.Batch.Failures))
	for i := range out.Batch.Proxies {
		p := out.Batch.Proxies[i]
		missing := proxy.Missing(p)
		status := StatusValid
		if len(missing) > 0 {
			status = StatusExcluded
		}
		entries = append(entries, Entry{Status: status, Proxy: &p, Missing: missing})
	}
	for _, failure := range out.Batch.Failures {
		entries = append(entries, Entry{Status: StatusFailed, Failure: failure})
	}
	return entries
}

// LoadFunc 重新执行一次转换
type LoadFunc func(ctx context.Context) (*converter.Outcome, error)

// Model 是主 TUI 模型
type Model struct {
	// 数据
	entries  []Entry
	skipped  int
	selected int

	// 视图状态
	view   ViewType
	detail *Entry
	// reveal 为 true 时详情页显示完整的密码与 UUID
	reveal bool

	load LoadFunc

	// 终端尺寸
	width  int
	height int

	detailScrollOffset int

	// 状态
	loading bool
	err     error

	// 按键绑定
	keys keyMap
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Quit    key.Binding
	Refresh key.Binding
	Reveal  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Reveal: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "show secrets"),
		),
	}
}

// NewModel 创建新的 TUI 模型，初始数据为空时在 Init 中加载
func NewModel(load LoadFunc, initial *converter.Outcome) Model {
	m := Model{
		load:    load,
		view:    ViewProxyList,
		keys:    defaultKeyMap(),
		loading: initial == nil,
	}
	if initial != nil {
		m.entries = Entries(initial)
		m.skipped = initial.Batch.Skipped
	}
	return m
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	if m.loading {
		return m.loadOutcome()
	}
	return nil
}

// 消息类型

type outcomeLoadedMsg struct {
	out *converter.Outcome
}

type errorMsg struct {
	err error
}

// 命令

func (m Model) loadOutcome() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		if load == nil {
			return errorMsg{err: errNoLoader}
		}
		out, err := load(context.Background())
		if out == nil && err != nil {
			return errorMsg{err: err}
		}
		// 没有可用节点时仍然展示解析结果
		return outcomeLoadedMsg{out: out}
	}
}
