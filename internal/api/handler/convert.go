// 文件路径: internal/api/handler/convert.go
// 模块说明: 这是 internal 模块里的 convert 逻辑，提供按请求抓取订阅并返回 Surge / Clash 配置的接口。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/fetch"
	"github.com/creamcroissant/autoconvert/internal/protocol"
)

var (
	errMissingURL = errors.New("query parameter url is required / 缺少 url 参数")
	errRemoteOnly = errors.New("only http(s) subscription urls are accepted / 仅接受 http(s) 订阅地址")
)

// ConvertService 执行一次转换，由 converter.Converter 实现。
type ConvertService interface {
	Run(ctx context.Context, req converter.Request) (*converter.Outcome, error)
}

// ConvertHandler 处理 GET /convert?url=...&target=...
type ConvertHandler struct {
	service ConvertService
	flags   []string
	logger  *slog.Logger
}

func NewConvertHandler(service ConvertService, flags []string, logger *slog.Logger) *ConvertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertHandler{service: service, flags: flags, logger: logger}
}

func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	source := strings.TrimSpace(query.Get("url"))
	if source == "" {
		respondError(w, http.StatusBadRequest, "convert", errMissingURL)
		return
	}
	if !fetch.IsRemote(source) {
		respondError(w, http.StatusBadRequest, "convert", errRemoteOnly)
		return
	}
	target := strings.ToLower(strings.TrimSpace(query.Get("target")))
	if target == "" {
		target = strings.ToLower(strings.TrimSpace(query.Get("flag")))
	}
	if target != "" && !slices.Contains(h.flags, target) {
		respondError(w, http.StatusBadRequest, "convert", fmt.Errorf("%w: %q", protocol.ErrUnknownFormat, target))
		return
	}

	out, err := h.service.Run(r.Context(), converter.Request{
		Source:     source,
		Flag:       target,
		UserAgent:  r.UserAgent(),
		ManagedURL: absoluteURL(r),
	})
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("conversion failed", "error", err, "status", status)
		}
		respondError(w, status, "convert", err)
		return
	}
	if out == nil || len(out.Results) == 0 {
		respondError(w, http.StatusInternalServerError, "convert", errors.New("empty conversion result"))
		return
	}

	result := out.Results[0]
	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	for key, value := range result.Headers {
		if key == "" || strings.EqualFold(key, "content-type") {
			continue
		}
		w.Header().Set(key, value)
	}
	w.Header().Set("X-Run-ID", out.RunID)
	w.Header().Set("X-Proxy-Count", strconv.Itoa(result.Rendered))

	etag := formatETag(computeETag(result.Format, absoluteURL(r), out.Valid))
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Payload)
}

func statusForError(err error) int {
	var fetchErr *fetch.FetchError
	switch {
	case errors.Is(err, converter.ErrNoValidProxies):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fetch.ErrUnsupportedScheme), errors.Is(err, fetch.ErrEmptySource):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, fetch.ErrTooLarge), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestScheme(r *http.Request) string {
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func absoluteURL(r *http.Request) string {
	host := strings.TrimSpace(r.Host)
	if host == "" {
		return ""
	}
	scheme := requestScheme(r)
	return scheme + "://" + host + r.URL.RequestURI()
}
