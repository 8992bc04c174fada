package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/autoconvert/internal/rules"
)

func init() {
	var (
		dir         string
		upstream    string
		concurrency int
		verify      bool
	)
	var rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Download the rule sets referenced by the generated profiles",
		Long: `Download every rule set the Surge and Clash profiles reference from the
upstream mirror, strip signature lines and write them under <dir>/<target>/.
With --verify the existing tree is only scanned for leftover signature lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if !cmd.Flags().Changed("dir") {
				dir = cfg.Rules.Dir
			}
			if !cmd.Flags().Changed("upstream") {
				upstream = cfg.Rules.Upstream
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Rules.Concurrency
			}
			w := cmd.OutOrStdout()

			if verify {
				dirty, err := rules.Verify(dir)
				if err != nil {
					return err
				}
				if len(dirty) > 0 {
					for _, p := range dirty {
						fmt.Fprintf(w, "  signature found: %s\n", p)
					}
					return fmt.Errorf("%d rule files still carry signature lines", len(dirty))
				}
				fmt.Fprintf(w, "Rule tree %s is clean\n", dir)
				return nil
			}

			infra, err := infrastructure()
			if err != nil {
				return err
			}
			downloader := rules.NewDownloader(infra.Fetcher, rules.Options{
				Dir:         dir,
				Concurrency: concurrency,
				Logger:      logger,
			})
			report, err := downloader.Download(cmd.Context(), rules.DefaultSources(infra.Policy, upstream))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Wrote %d rule files (%d rules) to %s\n", len(report.Written), report.Rules(), dir)
			for _, f := range report.Failed {
				fmt.Fprintf(w, "  failed %s: %v\n", f.Source.Path(), f.Err)
			}
			return nil
		},
	}
	rulesCmd.Flags().StringVar(&dir, "dir", "rules", "Output directory for the rule tree")
	rulesCmd.Flags().StringVar(&upstream, "upstream", rules.DefaultUpstream, "Upstream rule set mirror")
	rulesCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Parallel downloads")
	rulesCmd.Flags().BoolVar(&verify, "verify", false, "Only check the existing tree for signature lines")
	rootCmd.AddCommand(rulesCmd)
}
