package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/accounts"
	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
)

func newAccountsCommand(root *rootOptions) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List bank accounts with their latest balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runAccounts(cmd.Context(), root, rt, asCSV)
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print the roster as CSV (accepted by init --accounts)")

	return cmd
}

func runAccounts(ctx context.Context, root *rootOptions, rt *runtime, asCSV bool) error {
	var list []model.Account
	if c, ok := root.remote(rt); ok {
		remote, err := c.Accounts(ctx, root.v.GetString(keyToken))
		if err != nil {
			return err
		}
		list = remote
	} else {
		db, err := rt.openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		list, err = rt.roster().WithBalances(ctx, db)
		if err != nil {
			return err
		}
	}

	if asCSV {
		return accounts.WriteAccounts(os.Stdout, list)
	}
	if len(list) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	rows := make([][]string, len(list))
	for i, a := range list {
		rows[i] = []string{a.Number, a.Name, a.Currency, export.FormatAmount(a.Balance)}
	}
	fmt.Println(renderTable([]string{"Account", "Name", "Currency", "Balance"}, rows, 3))
	return nil
}
