package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/protocol"
	"github.com/creamcroissant/autoconvert/internal/upload"
)

func init() {
	var (
		output      string
		formats     string
		managedURL  string
		doUpload    bool
		githubToken string
		qrDir       string
	)
	var convertCmd = &cobra.Command{
		Use:   "convert <subscription-url|file|->",
		Short: "Convert a subscription into Surge / Clash profiles",
		Long: `Fetch the subscription, parse every vmess/ss/trojan link and write
<prefix>.surge.conf and/or <prefix>.clash.yaml. A local file path or "-" (stdin)
is accepted in place of the URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if !cmd.Flags().Changed("output") {
				output = cfg.Output.Prefix
			}
			if !cmd.Flags().Changed("format") {
				formats = cfg.Output.Formats
			}
			if !cmd.Flags().Changed("managed-url") {
				managedURL = cfg.Surge.ManagedURL
			}
			if !cmd.Flags().Changed("qr-dir") {
				qrDir = cfg.Upload.QRDir
			}
			selected, err := protocol.ParseFormats(formats)
			if err != nil {
				return err
			}

			infra, err := infrastructure()
			if err != nil {
				return err
			}
			out, err := infra.Converter.Run(cmd.Context(), converter.Request{
				Source:     args[0],
				Formats:    selected,
				ManagedURL: managedURL,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSummary(w, out)

			paths, err := converter.WriteFiles(output, out.Results)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(w, "  wrote %s\n", p)
			}
			if !doUpload {
				return nil
			}

			token := githubToken
			if token == "" {
				token = cfg.Upload.Token
			}
			uploader, err := upload.NewUploader(upload.Options{
				Token:   token,
				BaseURL: cfg.Upload.BaseURL,
				Public:  cfg.Upload.Public,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			gist, err := uploader.Upload(cmd.Context(), paths, cfg.Upload.Description)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Gist: %s\n", gist.HTMLURL)
			for _, name := range gist.Filenames() {
				fmt.Fprintf(w, "  %s: %s\n", name, gist.RawURLs[name])
			}
			if qrDir != "" {
				qrPaths, err := upload.WriteQRCodes(qrDir, gist.RawURLs)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "QR codes: %s\n", strings.Join(qrPaths, ", "))
			}
			return nil
		},
	}
	convertCmd.Flags().StringVarP(&output, "output", "o", "config", "Output file prefix")
	convertCmd.Flags().StringVarP(&formats, "format", "f", "both", "Output format: surge, clash or both")
	convertCmd.Flags().StringVar(&managedURL, "managed-url", "", "URL written into the Surge #!MANAGED-CONFIG header")
	convertCmd.Flags().BoolVar(&doUpload, "upload", false, "Upload the generated files to a secret GitHub gist")
	convertCmd.Flags().StringVar(&githubToken, "github-token", "", "GitHub token for --upload (default $GITHUB_TOKEN)")
	convertCmd.Flags().StringVar(&qrDir, "qr-dir", "qr_codes", "Directory for QR codes of uploaded files (empty to skip)")
	rootCmd.AddCommand(convertCmd)
}

func printSummary(w io.Writer, out *converter.Outcome) {
	fmt.Fprintf(w, "Parsed %d proxies: %d valid, %d excluded, %d failed, %d skipped\n",
		len(out.Batch.Proxies)+len(out.Batch.Failures),
		len(out.Valid),
		out.Excluded(),
		len(out.Batch.Failures),
		out.Batch.Skipped,
	)
}
