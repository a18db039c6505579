package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/model"
)

func newShowCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Show one transaction by its bank reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runShow(cmd.Context(), root, rt, args[0])
		},
	}
	return cmd
}

func runShow(ctx context.Context, root *rootOptions, rt *runtime, ref string) error {
	var (
		txn model.Transaction
		err error
	)
	if c, ok := root.remote(rt); ok {
		txn, err = c.Transaction(ctx, root.v.GetString(keyToken), ref)
	} else {
		db, oerr := rt.openStore(ctx)
		if oerr != nil {
			return oerr
		}
		defer db.Close()
		txn, err = db.TransactionByReference(ctx, ref)
	}
	if err != nil {
		return err
	}

	printTransactions(os.Stdout, []model.Transaction{txn})
	return nil
}
