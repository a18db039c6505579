// Package balance derives running balances from a transaction history.
package balance

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
)

// Recalculate returns a copy of one account's transactions in posting order
// with running balances recomputed from zero. Transactions posted at the same
// time keep their input order.
func Recalculate(txns []model.Transaction) []model.Transaction {
	out := slices.Clone(txns)
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	running := decimal.Zero
	for i := range out {
		running = running.Add(out[i].CreditAmount()).Sub(out[i].WithdrawalAmount())
		out[i].RunningBalance = running
	}
	return out
}

// Mismatch is a stored running balance that disagrees with the recomputed one.
type Mismatch struct {
	ReferenceID string
	Stored      decimal.Decimal
	Expected    decimal.Decimal
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: stored %s, expected %s", m.ReferenceID, m.Stored.StringFixed(2), m.Expected.StringFixed(2))
}

// Verify recomputes txns and reports every stored balance that differs.
func Verify(txns []model.Transaction) []Mismatch {
	stored := make(map[string]decimal.Decimal, len(txns))
	for _, t := range txns {
		stored[t.ReferenceID] = t.RunningBalance
	}

	var out []Mismatch
	for _, t := range Recalculate(txns) {
		if s := stored[t.ReferenceID]; !s.Equal(t.RunningBalance) {
			out = append(out, Mismatch{ReferenceID: t.ReferenceID, Stored: s, Expected: t.RunningBalance})
		}
	}
	return out
}

// Store reads and updates an account's transactions.
type Store interface {
	TransactionsByAccount(ctx context.Context, account string) ([]model.Transaction, error)
	UpdateRunningBalances(ctx context.Context, balances map[string]decimal.Decimal) error
}

// Recompute rewrites the running balances of account in store and returns
// the closing balance.
func Recompute(ctx context.Context, store Store, account string) (decimal.Decimal, error) {
	txns, err := store.TransactionsByAccount(ctx, account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading transactions of %s: %w", account, err)
	}
	if len(txns) == 0 {
		return decimal.Zero, nil
	}

	recalculated := Recalculate(txns)
	balances := make(map[string]decimal.Decimal, len(recalculated))
	for _, t := range recalculated {
		balances[t.ReferenceID] = t.RunningBalance
	}
	if err := store.UpdateRunningBalances(ctx, balances); err != nil {
		return decimal.Zero, fmt.Errorf("updating balances of %s: %w", account, err)
	}
	return recalculated[len(recalculated)-1].RunningBalance, nil
}
