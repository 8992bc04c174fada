// 文件路径: internal/api/router.go
// 模块说明: 这是 internal 模块里的 router 逻辑，组装中间件并注册转换、健康检查与指标路由。
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/autoconvert/internal/api/handler"
	"github.com/creamcroissant/autoconvert/internal/api/middleware"
	"github.com/creamcroissant/autoconvert/internal/config"
)

type Services struct {
	Converter handler.ConvertService
	// Flags 是 target 参数允许的取值。
	Flags []string
	// Registry 为空时不暴露 /metrics。
	Registry *prometheus.Registry
}

// NewRouter wires the conversion, health and metrics endpoints.
func NewRouter(logger *slog.Logger, services Services, serveCfg config.ServeConfig, metricsCfg config.MetricsConfig) http.Handler {
	if services.Converter == nil {
		panic("router requires ConvertService")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	metricsEnabled := metricsCfg.Enabled && services.Registry != nil
	if metricsEnabled {
		mCfg := middleware.DefaultMetricsConfig()
		if metricsCfg.Namespace != "" {
			mCfg.Namespace = metricsCfg.Namespace
		}
		metrics := middleware.NewMetrics(services.Registry, mCfg)
		r.Use(metrics.Middleware())
	}

	r.Use(
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: serveCfg.SlowThreshold,
			SkipPaths:     []string{"/healthz", "/metrics"},
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	if metricsEnabled {
		metricsHandler := promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{Registry: services.Registry})
		if metricsCfg.Token != "" {
			r.With(middleware.MetricsGuard(metricsCfg.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	convertHandler := handler.NewConvertHandler(services.Converter, services.Flags, logger)
	r.Method(http.MethodGet, "/convert", convertHandler)
	r.Method(http.MethodGet, "/sub", convertHandler)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		http.NotFound(w, req)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
