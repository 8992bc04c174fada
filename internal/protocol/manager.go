// 文件路径: internal/protocol/manager.go
// 模块说明: 这是 internal 模块里的 manager 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoBuilders    = errors.New("protocol: no builders registered / 未注册任何配置构建器")
	ErrUnknownFormat = errors.New("protocol: unknown format / 不支持的输出格式")
)

// Manager 管理可用的格式构建器，并按格式或客户端标识匹配。
type Manager struct {
	builders       []Builder
	defaultBuilder Builder
}

// NewManager 创建注册表并可预加载构建器。
func NewManager(builders ...Builder) *Manager {
	m := &Manager{}
	for _, builder := range builders {
		m.Register(builder)
	}
	return m
}

// NewDefaultManager 注册 Surge 与 Clash 两个默认构建器，Surge 为默认。
func NewDefaultManager(surge SurgeOptions, clash ClashOptions) *Manager {
	return NewManager(NewSurgeBuilder(surge), NewClashBuilder(clash))
}

// Register 将构建器注册到列表。
func (m *Manager) Register(builder Builder) {
	if builder == nil {
		return
	}
	m.builders = append(m.builders, builder)
	if m.defaultBuilder == nil {
		m.defaultBuilder = builder
	}
}

// Flags 返回所有构建器支持的标识集合。
func (m *Manager) Flags() []string {
	seen := make(map[string]struct{})
	var flags []string
	for _, builder := range m.builders {
		for _, flag := range builder.Flags() {
			n := strings.ToLower(strings.TrimSpace(flag))
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			flags = append(flags, n)
		}
	}
	return flags
}

// Lookup 按格式查找构建器。
func (m *Manager) Lookup(format Format) (Builder, bool) {
	for _, builder := range m.builders {
		if builder.Format() == format {
			return builder, true
		}
	}
	return nil, false
}

// Resolve 选择处理请求的构建器：显式格式优先，其次按标识匹配，最后使用默认构建器。
func (m *Manager) Resolve(req BuildRequest) (Builder, error) {
	if len(m.builders) == 0 {
		return nil, ErrNoBuilders
	}
	if req.Format != "" {
		builder, ok := m.Lookup(req.Format)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
		}
		return builder, nil
	}
	if builder := m.matchBuilder(req.Flag, req.UserAgent); builder != nil {
		return builder, nil
	}
	return m.defaultBuilder, nil
}

// Build 选择合适的构建器并生成配置文档。
func (m *Manager) Build(req BuildRequest) (*Result, error) {
	builder, err := m.Resolve(req)
	if err != nil {
		return nil, err
	}
	if req.Context == nil {
		req.Context = context.Background()
	}
	return builder.Build(req)
}

// BuildAll 依次渲染多个格式，任一格式失败即返回错误。
func (m *Manager) BuildAll(req BuildRequest, formats []Format) ([]*Result, error) {
	results := make([]*Result, 0, len(formats))
	for _, format := range formats {
		req.Format = format
		result, err := m.Build(req)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (m *Manager) matchBuilder(flag string, userAgent string) Builder {
	combined := strings.ToLower(strings.TrimSpace(flag))
	if combined == "" {
		combined = strings.ToLower(strings.TrimSpace(userAgent))
	}
	if combined == "" {
		return nil
	}
	for i := len(m.builders) - 1; i >= 0; i-- {
		builder := m.builders[i]
		for _, candidate := range builder.Flags() {
			if candidate == "" {
				continue
			}
			if strings.Contains(combined, strings.ToLower(candidate)) {
				return builder
			}
		}
	}
	return nil
}
