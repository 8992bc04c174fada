package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/job"
	"github.com/creamcroissant/autoconvert/internal/protocol"
	"github.com/creamcroissant/autoconvert/internal/upload"
)

func init() {
	var (
		schedule string
		output   string
		formats  string
		doUpload bool
	)
	var watchCmd = &cobra.Command{
		Use:   "watch <subscription-url|file>",
		Short: "Re-run the conversion on a cron schedule",
		Long: `Convert once immediately, then again on every tick of --cron
(standard cron syntax, optional seconds, or descriptors such as "@every 12h").
Files are only rewritten and uploaded when the node set changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if !cmd.Flags().Changed("cron") {
				schedule = cfg.Watch.Schedule
			}
			if !cmd.Flags().Changed("output") {
				output = cfg.Output.Prefix
			}
			if !cmd.Flags().Changed("format") {
				formats = cfg.Output.Formats
			}
			selected, err := protocol.ParseFormats(formats)
			if err != nil {
				return err
			}
			infra, err := infrastructure()
			if err != nil {
				return err
			}

			convertJob := job.NewConvertJob(infra.Converter, converter.Request{
				Source:     args[0],
				Formats:    selected,
				ManagedURL: cfg.Surge.ManagedURL,
			}, output, logger)
			if doUpload {
				uploader, err := upload.NewUploader(upload.Options{
					Token:   cfg.Upload.Token,
					BaseURL: cfg.Upload.BaseURL,
					Public:  cfg.Upload.Public,
					Logger:  logger,
				})
				if err != nil {
					return err
				}
				convertJob.Uploader = uploader
				convertJob.Description = cfg.Upload.Description
				convertJob.QRDir = cfg.Upload.QRDir
			}

			scheduler := job.NewScheduler(logger, cfg.Watch.Timeout)
			id, err := scheduler.Register(schedule, convertJob)
			if err != nil {
				return fmt.Errorf("register watch schedule: %w", err)
			}
			// 首次失败不退出，等待下一次触发
			_ = scheduler.RunNow(cmd.Context(), convertJob)

			scheduler.Start()
			logger.Info("watching subscription", "schedule", schedule, "next", scheduler.Next(id))
			<-cmd.Context().Done()
			logger.Info("stopping scheduler")
			<-scheduler.Stop().Done()
			return nil
		},
	}
	watchCmd.Flags().StringVar(&schedule, "cron", "@every 12h", "Cron schedule")
	watchCmd.Flags().StringVarP(&output, "output", "o", "config", "Output file prefix")
	watchCmd.Flags().StringVarP(&formats, "format", "f", "both", "Output format: surge, clash or both")
	watchCmd.Flags().BoolVar(&doUpload, "upload", false, "Upload changed files to a GitHub gist (token from config or $GITHUB_TOKEN)")
	rootCmd.AddCommand(watchCmd)
}
