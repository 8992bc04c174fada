// 文件路径: internal/protocol/types.go
// 模块说明: 这是 internal 模块里的 types 逻辑，定义配置渲染器共用的请求、结果与接口。
package protocol

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/autoconvert/internal/policy"
	"github.com/creamcroissant/autoconvert/internal/proxy"
)

// Format 是输出格式，取值是封闭集合。
type Format string

const (
	FormatSurge Format = "surge"
	FormatClash Format = "clash"
)

// AllFormats 按输出顺序列出支持的格式。
var AllFormats = []Format{FormatSurge, FormatClash}

// FileSuffix 返回输出文件的后缀，例如 config.surge.conf 中的 ".surge.conf"。
func (f Format) FileSuffix() string {
	switch f {
	case FormatSurge:
		return ".surge.conf"
	case FormatClash:
		return ".clash.yaml"
	default:
		return "." + string(f)
	}
}

// ParseFormat 解析单个格式名称。
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatSurge:
		return FormatSurge, nil
	case FormatClash:
		return FormatClash, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// ParseFormats 解析 surge / clash / both 选择。
func ParseFormats(raw string) ([]Format, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "both") {
		out := make([]Format, len(AllFormats))
		copy(out, AllFormats)
		return out, nil
	}
	f, err := ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return []Format{f}, nil
}

// BuildRequest carries everything a builder needs to render one document.
type BuildRequest struct {
	Context context.Context
	Proxies []proxy.Proxy
	Policy  *policy.Policy
	// Format 非空时直接选择对应构建器，否则按 Flag / UserAgent 匹配。
	Format    Format
	Flag      string
	UserAgent string
	// ManagedURL 写入 Surge 托管配置头，为空时省略。
	ManagedURL string
	// GeneratedAt 是文档中唯一随时间变化的字段。
	GeneratedAt time.Time
}

func (r BuildRequest) policy() *policy.Policy {
	if r.Policy == nil {
		return policy.Default()
	}
	return r.Policy
}

func (r BuildRequest) timestamp() string {
	at := r.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	return at.Format(timestampLayout)
}

const timestampLayout = "2006-01-02 15:04:05"

// Result captures the serialized payload emitted by a protocol builder.
type Result struct {
	Format      Format
	Payload     []byte
	ContentType string
	Headers     map[string]string
	// Rendered 是写入文档的节点数，Excluded 是被校验或序列化剔除的数量。
	Rendered int
	Excluded int
}

// Builder defines the contract implemented by each format renderer.
type Builder interface {
	Format() Format
	Flags() []string
	Build(req BuildRequest) (*Result, error)
}
