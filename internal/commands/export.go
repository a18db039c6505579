package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/export"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	var filters filterFlags
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching transactions as PDF or Excel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), root, rt, &filters, f, output)
		},
	}
	filters.register(cmd, false)
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "export format (pdf, excel)")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output file or directory")

	return cmd
}

func runExport(ctx context.Context, root *rootOptions, rt *runtime, f *filterFlags, format export.Format, output string) error {
	params, err := f.params()
	if err != nil {
		return fmt.Errorf("invalid export criteria: %w", err)
	}

	b, err := root.openBackend(ctx, rt)
	if err != nil {
		return err
	}
	defer b.Close()

	ctrl := b.session(rt, nil)
	defer ctrl.Close()

	ctrl.SetFilters(patchFrom(params.Criteria))
	payload, err := ctrl.Export(ctx, format)
	if err != nil {
		return describe(err)
	}

	path := output
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		path = filepath.Join(output, payload.Filename)
	}
	if err := os.WriteFile(path, payload.Data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", path, len(payload.Data))
	return nil
}
