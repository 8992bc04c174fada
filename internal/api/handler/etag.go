// 文件路径: internal/api/handler/etag.go
// 模块说明: 这是 internal 模块里的 etag 逻辑，按节点内容与输出格式计算稳定的实体标签。
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/creamcroissant/autoconvert/internal/protocol"
	"github.com/creamcroissant/autoconvert/internal/proxy"
)

func formatETag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return "\"" + trimmed + "\""
}

// computeETag 不包含生成时间，节点不变时客户端可以拿到 304。
func computeETag(format protocol.Format, managedURL string, proxies []proxy.Proxy) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(managedURL))
	h.Write([]byte{0})
	if err := json.NewEncoder(h).Encode(proxies); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
