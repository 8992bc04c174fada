// 文件路径: internal/protocol/base.go
// 模块说明: 这是 internal 模块里的 base 逻辑，负责在渲染前筛掉不可用或不支持的节点。
package protocol

import (
	"fmt"
	"net/url"

	"github.com/creamcroissant/autoconvert/internal/proxy"
)

type BaseBuilder struct {
	allowed map[proxy.Kind]struct{}
}

func NewBaseBuilder() *BaseBuilder {
	return &BaseBuilder{allowed: make(map[proxy.Kind]struct{})}
}

func (b *BaseBuilder) Allow(kinds ...proxy.Kind) {
	if b == nil {
		return
	}
	for _, k := range kinds {
		b.allowed[k] = struct{}{}
	}
}

// FilterProxies 保留通过校验且协议受支持的节点，顺序不变，并返回剔除数量。
func (b *BaseBuilder) FilterProxies(req BuildRequest) ([]proxy.Proxy, int) {
	kept := make([]proxy.Proxy, 0, len(req.Proxies))
	for _, p := range req.Proxies {
		if !proxy.Valid(p) {
			continue
		}
		if b != nil && len(b.allowed) > 0 {
			if _, ok := b.allowed[p.Kind]; !ok {
				continue
			}
		}
		kept = append(kept, p)
	}
	return kept, len(req.Proxies) - len(kept)
}

// attachmentHeaders 生成下载文件名响应头。
func attachmentHeaders(profile string, format Format) map[string]string {
	return map[string]string{
		"content-disposition": fmt.Sprintf("attachment;filename*=UTF-8''%s%s", url.PathEscape(profile), format.FileSuffix()),
	}
}
