package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "AUTOCONVERT"

// Load 读取配置：默认值 < 配置文件 < .env < 环境变量。path 非空时必须存在。
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("autoconvert")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "autoconvert"))
		}
		v.AddConfigPath("/etc/autoconvert/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("upload.token", envPrefix+"_UPLOAD_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind env upload.token: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := loadDotEnv(v, "."); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.compress", false)
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_bytes", 10<<20)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.retry_initial", "500ms")
	v.SetDefault("fetch.retry_max", "5s")
	v.SetDefault("fetch.cache_ttl", "0s")

	v.SetDefault("rules.base_url", "https://raw.githubusercontent.com/onlinefchen/auto-convert/main/rules")
	v.SetDefault("rules.upstream", "https://ruleset.skk.moe")
	v.SetDefault("rules.dir", "rules")
	v.SetDefault("rules.concurrency", 4)
	v.SetDefault("rules.test_url", "http://www.google.com/generate_204")
	v.SetDefault("rules.interval", 300)

	v.SetDefault("output.prefix", "config")
	v.SetDefault("output.formats", "both")
	v.SetDefault("output.profile", "autoconvert")

	v.SetDefault("surge.managed_url", "")
	v.SetDefault("surge.managed_interval", 43200)
	v.SetDefault("surge.skip_proxy", []string{"192.168.0.0/16", "10.0.0.0/8", "172.16.0.0/12", "localhost", "*.local"})
	v.SetDefault("surge.dns_server", []string{"119.29.29.29", "223.5.5.5", "system"})
	v.SetDefault("surge.log_level", "notify")
	v.SetDefault("surge.internet_test_url", "http://www.aliyun.com")
	v.SetDefault("surge.proxy_test_url", "http://www.google.com/generate_204")
	v.SetDefault("surge.test_timeout", 5)
	v.SetDefault("surge.ipv6", false)

	v.SetDefault("clash.port", 7890)
	v.SetDefault("clash.socks_port", 7891)
	v.SetDefault("clash.allow_lan", false)
	v.SetDefault("clash.mode", "rule")
	v.SetDefault("clash.log_level", "info")
	v.SetDefault("clash.external_controller", "127.0.0.1:9090")
	v.SetDefault("clash.dns.enable", true)
	v.SetDefault("clash.dns.nameserver", []string{"119.29.29.29", "223.5.5.5"})
	v.SetDefault("clash.dns.fallback", []string{"8.8.8.8", "1.1.1.1"})
	v.SetDefault("clash.provider_interval", 86400)

	v.SetDefault("upload.token", "")
	v.SetDefault("upload.base_url", "")
	v.SetDefault("upload.description", "")
	v.SetDefault("upload.public", false)
	v.SetDefault("upload.qr_dir", "qr_codes")

	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("serve.shutdown_timeout", "15s")
	v.SetDefault("serve.slow_threshold", "2s")

	v.SetDefault("watch.schedule", "@every 12h")
	v.SetDefault("watch.timeout", "2m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "autoconvert")
	v.SetDefault("metrics.token", "")
}

func loadDotEnv(v *viper.Viper, dir string) error {
	file := filepath.Clean(filepath.Join(dir, ".env"))
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}

	// .env 使用单独的 viper 实例，避免与主配置的类型混淆
	envViper := viper.New()
	envViper.SetConfigFile(file)
	envViper.SetConfigType("env")
	if err := envViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read .env: %w", err)
	}
	bindDotEnv(v, envViper)
	return nil
}

// bindDotEnv 把 .env 里的扁平变量映射到分层配置，真实环境变量仍然优先。
func bindDotEnv(target *viper.Viper, source *viper.Viper) {
	mappings := map[string]string{
		"GITHUB_TOKEN":   "upload.token",
		"LOG_LEVEL":      "log.level",
		"LOG_FORMAT":     "log.format",
		"LOG_FILE":       "log.file",
		"RULES_BASE_URL": "rules.base_url",
		"USER_AGENT":     "fetch.user_agent",
		"SERVE_ADDR":     "serve.addr",
		"METRICS_TOKEN":  "metrics.token",
	}
	for oldKey, newKey := range mappings {
		val := source.GetString(oldKey)
		if val == "" {
			continue
		}
		if _, ok := os.LookupEnv(envKey(newKey)); ok {
			continue
		}
		if newKey == "upload.token" {
			if _, ok := os.LookupEnv("GITHUB_TOKEN"); ok {
				continue
			}
		}
		target.Set(newKey, val)
	}
}

func envKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
