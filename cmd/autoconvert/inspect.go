package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/protocol"
	"github.com/creamcroissant/autoconvert/internal/tui"
)

func init() {
	var interactive bool
	var inspectCmd = &cobra.Command{
		Use:   "inspect <subscription-url|file|->",
		Short: "Show parsed proxies, validation results and parse failures",
		Long:  "Parse the subscription without writing any file. Use -i to browse the nodes interactively.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := infrastructure()
			if err != nil {
				return err
			}
			source := args[0]
			load := func(ctx context.Context) (*converter.Outcome, error) {
				return infra.Converter.Run(ctx, converter.Request{Source: source, Formats: protocol.AllFormats})
			}

			out, err := load(cmd.Context())
			if out == nil {
				return err
			}
			if !interactive {
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderTable(out))
				printSummary(cmd.OutOrStdout(), out)
				return err
			}

			if errors.Is(err, converter.ErrNoValidProxies) {
				err = nil
			}
			p := tea.NewProgram(
				tui.NewModel(load, out),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(cmd.Context()),
			)
			if _, runErr := p.Run(); runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return fmt.Errorf("run tui: %w", runErr)
			}
			return err
		},
	}
	inspectCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse nodes in an interactive terminal UI")
	rootCmd.AddCommand(inspectCmd)
}
