// 文件路径: internal/bootstrap/infra.go
// 模块说明: 这是 internal 模块里的 infra 逻辑，把配置翻译成抓取器、策略、渲染器与转换器并组装在一起。
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/creamcroissant/autoconvert/internal/cache"
	"github.com/creamcroissant/autoconvert/internal/config"
	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/fetch"
	"github.com/creamcroissant/autoconvert/internal/policy"
	"github.com/creamcroissant/autoconvert/internal/protocol"
)

// Infrastructure bundles the components shared by every command.
type Infrastructure struct {
	Cache     cache.Store
	Fetcher   *fetch.Fetcher
	Policy    *policy.Policy
	Manager   *protocol.Manager
	Converter *converter.Converter
	// Registry 为空表示未启用指标。
	Registry *prometheus.Registry
	Metrics  *converter.Metrics
}

// BuildInfrastructure wires default implementations from cfg.
func BuildInfrastructure(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cacheStore := cache.NewStore(cache.Options{
		Prefix:          "autoconvert",
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	})

	fetcher := fetch.New(FetchOptions(cfg.Fetch, cacheStore, logger))
	pol := policy.New(policy.Options{
		TestURL:     cfg.Rules.TestURL,
		Interval:    cfg.Rules.Interval,
		RuleBaseURL: cfg.Rules.BaseURL,
	})
	manager := protocol.NewDefaultManager(SurgeOptions(cfg), ClashOptions(cfg))

	var (
		registry *prometheus.Registry
		metrics  *converter.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = converter.NewMetrics(registry)
	}

	conv := converter.New(fetcher, converter.Options{
		Manager: manager,
		Policy:  pol,
		Logger:  logger,
		Metrics: metrics,
	})

	return &Infrastructure{
		Cache:     cacheStore,
		Fetcher:   fetcher,
		Policy:    pol,
		Manager:   manager,
		Converter: conv,
		Registry:  registry,
		Metrics:   metrics,
	}, nil
}

// FetchOptions 把抓取配置映射为 fetch.Options。Retries 为 0 时关闭重试。
func FetchOptions(cfg config.FetchConfig, store cache.Store, logger *slog.Logger) fetch.Options {
	retry := fetch.DefaultRetryConfig()
	retry.Enabled = cfg.Retries > 0
	retry.MaxRetries = cfg.Retries
	if cfg.RetryInitial > 0 {
		retry.InitialInterval = cfg.RetryInitial
	}
	if cfg.RetryMax > 0 {
		retry.MaxInterval = cfg.RetryMax
	}
	return fetch.Options{
		Timeout:   cfg.Timeout,
		MaxBytes:  cfg.MaxBytes,
		UserAgent: cfg.UserAgent,
		Retry:     retry,
		CacheTTL:  cfg.CacheTTL,
		Cache:     store,
		Logger:    logger,
	}
}

// SurgeOptions 把 surge 段映射为渲染选项。
func SurgeOptions(cfg *config.Config) protocol.SurgeOptions {
	general := protocol.DefaultSurgeGeneral()
	s := cfg.Surge
	if len(s.SkipProxy) > 0 {
		general.SkipProxy = s.SkipProxy
	}
	if len(s.DNSServer) > 0 {
		general.DNSServer = s.DNSServer
	}
	if s.LogLevel != "" {
		general.LogLevel = s.LogLevel
	}
	if s.InternetTestURL != "" {
		general.InternetTestURL = s.InternetTestURL
	}
	if s.ProxyTestURL != "" {
		general.ProxyTestURL = s.ProxyTestURL
	}
	if s.TestTimeout > 0 {
		general.TestTimeout = s.TestTimeout
	}
	general.IPv6 = s.IPv6
	return protocol.SurgeOptions{
		General:         &general,
		ManagedInterval: s.ManagedInterval,
		ProfileName:     cfg.Output.Profile,
	}
}

// ClashOptions 把 clash 段映射为渲染选项。
func ClashOptions(cfg *config.Config) protocol.ClashOptions {
	general := protocol.DefaultClashGeneral()
	c := cfg.Clash
	if c.Port > 0 {
		general.Port = c.Port
	}
	if c.SocksPort > 0 {
		general.SocksPort = c.SocksPort
	}
	general.AllowLAN = c.AllowLAN
	if c.Mode != "" {
		general.Mode = c.Mode
	}
	if c.LogLevel != "" {
		general.LogLevel = c.LogLevel
	}
	if c.ExternalController != "" {
		general.ExternalController = c.ExternalController
	}
	general.DNS.Enable = c.DNS.Enable
	if len(c.DNS.Nameserver) > 0 {
		general.DNS.Nameserver = c.DNS.Nameserver
	}
	if len(c.DNS.Fallback) > 0 {
		general.DNS.Fallback = c.DNS.Fallback
	}
	return protocol.ClashOptions{
		General:          &general,
		ProviderInterval: c.ProviderInterval,
		ProfileName:      cfg.Output.Profile,
	}
}
