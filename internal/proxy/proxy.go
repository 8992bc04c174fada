// 文件路径: internal/proxy/proxy.go
// 模块说明: 这是 internal 模块里的 proxy 逻辑，定义订阅链接解析后的统一节点结构。
package proxy

import "strings"

// Kind 表示节点协议类型，取值是一个封闭集合。
type Kind int

const (
	KindVmess Kind = iota + 1
	KindShadowsocks
	KindTrojan
)

// String 返回协议在链接与配置中使用的短名称。
func (k Kind) String() string {
	switch k {
	case KindVmess:
		return "vmess"
	case KindShadowsocks:
		return "ss"
	case KindTrojan:
		return "trojan"
	default:
		return "unknown"
	}
}

// ParseKind 按名称还原协议类型，大小写不敏感。
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vmess":
		return KindVmess, true
	case "ss", "shadowsocks":
		return KindShadowsocks, true
	case "trojan":
		return KindTrojan, true
	default:
		return 0, false
	}
}

// Proxy 是一条解析完成的节点记录，构建后不再修改。
type Proxy struct {
	Kind   Kind
	Name   string
	Server string
	Port   int

	// vmess
	UUID    string
	AlterID int
	Cipher  string // vmess 默认 auto，ss 为加密方式
	Network string
	TLS     bool
	SNI     string
	WSPath  string
	WSHost  string

	// ss / trojan
	Password string
}

// Tunneled 判断 vmess 是否走 websocket 传输。
func (p Proxy) Tunneled() bool {
	return strings.EqualFold(p.Network, "ws")
}
