package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukman83/dealdesk/internal/inventory"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/matching"
	"github.com/lukman83/dealdesk/internal/store"
	"github.com/lukman83/dealdesk/internal/tools"
	"github.com/lukman83/dealdesk/internal/ui"
)

func init() {
	// Names and descriptions only; nothing is wired until a command runs.
	for _, t := range tools.NewService(tools.Deps{}).Tools() {
		rootCmd.AddCommand(newToolCmd(t))
	}
}

func newToolCmd(t tools.Tool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ReplaceAll(t.Name, "_", "-"),
		Short: t.Description,
		Long:  t.Description + "\n\nThe JSON request is read from stdin, or from --input.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTool(cmd, t.Name)
		},
	}
	cmd.Flags().StringP("input", "i", "", "Read the JSON request from this file ('-' for stdin)")
	if t.Name == tools.GetInventoryStatus {
		cmd.Flags().String("format", "json", "Output format: json, table")
	}
	return cmd
}

func runTool(cmd *cobra.Command, name string) error {
	raw, err := readRequest(cmd)
	if err != nil {
		return err
	}

	ctx := logx.WithLogger(cmd.Context(), logger)

	if format, _ := cmd.Flags().GetString("format"); name == tools.GetInventoryStatus && format == "table" {
		return runInventoryTable(ctx, cmd.OutOrStdout())
	}

	svc := newService(cfg, nil)

	var spin *ui.Spinner
	switch name {
	case tools.NotifyBuyerNetwork:
		spin = ui.NewSpinner()
		spin.Start("Notifying buyers...")
		ctx = matching.WithProgress(ctx, spin.Update)
	case tools.RecordListing:
		spin = ui.NewSpinner()
		spin.Start("Recording listing...")
	}

	out, callErr := svc.Call(ctx, name, raw)
	if spin != nil {
		spin.Stop()
	}

	if err := tools.Encode(cmd.OutOrStdout(), tools.Envelope(out, callErr)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if callErr != nil {
		return errReported
	}
	return nil
}

// readRequest returns the request bytes. A terminal stdin with no --input
// is an empty request.
func readRequest(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("input")
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read request: %w", err)
		}
		return data, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && path == "" && ui.IsTerminal(f) {
		return nil, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}

func runInventoryTable(ctx context.Context, w io.Writer) error {
	in, err := inventory.Load(ctx, store.New(cfg.StateDir))
	if err != nil {
		return err
	}
	printInventoryTable(w, inventory.Report(in, time.Now()))
	return nil
}
