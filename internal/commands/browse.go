package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/logging"
	"github.com/cleared-dev/estatement/internal/tui"
)

func newBrowseCommand(root *rootOptions) *cobra.Command {
	var account string
	var exportDir string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse transactions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runBrowse(cmd.Context(), root, rt, account, exportDir)
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account number (default: every account)")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory exports are written to")

	return cmd
}

func runBrowse(ctx context.Context, root *rootOptions, rt *runtime, account, exportDir string) error {
	// The terminal belongs to the browser while it runs.
	rt.logger = logging.Discard()

	b, err := root.openBackend(ctx, rt)
	if err != nil {
		return err
	}
	defer b.Close()

	ctrl := b.session(rt, nil)
	defer ctrl.Close()

	if err := tui.Run(ctx, ctrl, tui.Options{Account: account, ExportDir: exportDir}); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
