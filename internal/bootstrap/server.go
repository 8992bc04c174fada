// 文件路径: internal/bootstrap/server.go
// 模块说明: 这是 internal 模块里的 server 逻辑，构建带保守超时的 HTTP 服务。
package bootstrap

import (
	"net/http"
	"time"
)

// NewHTTPServer constructs a baseline http.Server with conservative defaults.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// 转换包含一次上游抓取与重试，写超时要比抓取超时宽松
		WriteTimeout:   90 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MiB
	}
}
