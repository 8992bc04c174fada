package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/autoconvert/internal/bootstrap"
	"github.com/creamcroissant/autoconvert/internal/config"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	logLevel   string

	appConfig *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "autoconvert",
	Short: "Convert proxy subscriptions into Surge and Clash profiles",
	Long: `autoconvert fetches a base64 proxy subscription (vmess, ss, trojan),
validates every node and renders ready-to-use Surge and Clash profiles
with a fixed rule-based routing policy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if strings.TrimSpace(cfg.Fetch.UserAgent) == "" {
			cfg.Fetch.UserAgent = "autoconvert/" + Version
		}
		appConfig = cfg
		logger = bootstrap.NewLogger(cfg.Log, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to autoconvert.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// infrastructure 按当前配置组装转换所需的组件。
func infrastructure() (*bootstrap.Infrastructure, error) {
	return bootstrap.BuildInfrastructure(appConfig, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
