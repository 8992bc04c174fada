package bootstrap

import (
	"io"
	"log/slog"

	"github.com/creamcroissant/autoconvert/internal/config"
	"github.com/creamcroissant/autoconvert/internal/support/logging"
)

// NewLogger 按日志配置构建 slog 日志器，w 为空时写标准错误。
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := logging.Options{
		Level:     cfg.SlogLevel(),
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
		Writer:    w,
	}
	if cfg.File != "" {
		opts.File = &logging.FileOptions{
			Path:       cfg.File,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}
	return logging.New(opts)
}
