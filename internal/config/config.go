package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Output  OutputConfig  `mapstructure:"output"`
	Surge   SurgeConfig   `mapstructure:"surge"`
	Clash   ClashConfig   `mapstructure:"clash"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig 定义日志配置。File 为空时写标准错误。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	AddSource  bool   `mapstructure:"add_source"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// FetchConfig 定义订阅抓取配置。
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBytes     int64         `mapstructure:"max_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
	Retries      int           `mapstructure:"retries"`
	RetryInitial time.Duration `mapstructure:"retry_initial"`
	RetryMax     time.Duration `mapstructure:"retry_max"`
	// CacheTTL 为 0 时不缓存，serve 模式下才有意义。
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// RulesConfig 定义规则集位置与策略参数。
type RulesConfig struct {
	// BaseURL 是配置文件里引用规则集的根地址。
	BaseURL string `mapstructure:"base_url"`
	// Upstream 是 rules 命令下载规则的来源。
	Upstream    string `mapstructure:"upstream"`
	Dir         string `mapstructure:"dir"`
	Concurrency int    `mapstructure:"concurrency"`
	TestURL     string `mapstructure:"test_url"`
	Interval    int    `mapstructure:"interval"`
}

// OutputConfig 定义 convert 命令的输出。
type OutputConfig struct {
	Prefix  string `mapstructure:"prefix"`
	Formats string `mapstructure:"formats"`
	Profile string `mapstructure:"profile"`
}

// SurgeConfig 对应 Surge 的 [General] 段与托管头。
type SurgeConfig struct {
	ManagedURL      string   `mapstructure:"managed_url"`
	ManagedInterval int      `mapstructure:"managed_interval"`
	SkipProxy       []string `mapstructure:"skip_proxy"`
	DNSServer       []string `mapstructure:"dns_server"`
	LogLevel        string   `mapstructure:"log_level"`
	InternetTestURL string   `mapstructure:"internet_test_url"`
	ProxyTestURL    string   `mapstructure:"proxy_test_url"`
	TestTimeout     int      `mapstructure:"test_timeout"`
	IPv6            bool     `mapstructure:"ipv6"`
}

// ClashConfig 对应 Clash 的顶层设置。
type ClashConfig struct {
	Port               int            `mapstructure:"port"`
	SocksPort          int            `mapstructure:"socks_port"`
	AllowLAN           bool           `mapstructure:"allow_lan"`
	Mode               string         `mapstructure:"mode"`
	LogLevel           string         `mapstructure:"log_level"`
	ExternalController string         `mapstructure:"external_controller"`
	DNS                ClashDNSConfig `mapstructure:"dns"`
	ProviderInterval   int            `mapstructure:"provider_interval"`
}

type ClashDNSConfig struct {
	Enable     bool     `mapstructure:"enable"`
	Nameserver []string `mapstructure:"nameserver"`
	Fallback   []string `mapstructure:"fallback"`
}

// UploadConfig 定义 Gist 上传配置。
type UploadConfig struct {
	Token       string `mapstructure:"token"`
	BaseURL     string `mapstructure:"base_url"`
	Public      bool   `mapstructure:"public"`
	Description string `mapstructure:"description"`
	QRDir       string `mapstructure:"qr_dir"`
}

// ServeConfig 定义 HTTP 服务配置。
type ServeConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// WatchConfig 定义定时转换配置。
type WatchConfig struct {
	Schedule string        `mapstructure:"schedule"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
