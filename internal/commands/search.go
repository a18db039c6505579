package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSearchCommand(root *rootOptions) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search transactions and print one page with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), root, rt, &filters)
		},
	}
	filters.register(cmd, true)

	return cmd
}

func runSearch(ctx context.Context, root *rootOptions, rt *runtime, f *filterFlags) error {
	params, err := f.params()
	if err != nil {
		return fmt.Errorf("invalid search: %w", err)
	}

	b, err := root.openBackend(ctx, rt)
	if err != nil {
		return err
	}
	defer b.Close()

	ctrl := b.session(rt, f)
	defer ctrl.Close()

	ctrl.SetFilters(patchFrom(params.Criteria))
	state, err := ctrl.Load(ctx, params.Criteria.AccountNumber)
	if err != nil {
		return describe(err)
	}

	if params.Pagination.PageNumber > 1 {
		var ok bool
		state, ok = ctrl.ChangePage(params.Pagination.PageNumber)
		if !ok {
			return fmt.Errorf("page %d is out of range (1-%d)", params.Pagination.PageNumber, state.Pagination.TotalPages)
		}
	}

	if len(state.Visible) == 0 {
		fmt.Println("No transactions match.")
		return nil
	}
	printTransactions(os.Stdout, state.Visible)
	printStats(os.Stdout, state.Pagination, state.Stats)
	return nil
}
