package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/autoconvert/internal/api"
	"github.com/creamcroissant/autoconvert/internal/bootstrap"
)

func init() {
	var addr string
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Long:  "Start an HTTP server exposing GET /convert?url=<subscription>&target=surge|clash, /healthz and /metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			return runServe(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg := appConfig
	infra, err := infrastructure()
	if err != nil {
		return err
	}

	router := api.NewRouter(logger, api.Services{
		Converter: infra.Converter,
		Flags:     infra.Manager.Flags(),
		Registry:  infra.Registry,
	}, cfg.Serve, cfg.Metrics)
	server := bootstrap.NewHTTPServer(cfg.Serve.Addr, router)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		logger.Info("http server starting", "addr", cfg.Serve.Addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Serve.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}
	logger.Info("server exited cleanly")
	return nil
}
