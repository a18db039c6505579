package query

import (
	"slices"
	"strings"

	"github.com/cleared-dev/estatement/internal/model"
)

type comparator func(a, b model.Transaction) int

var comparators = map[SortField]comparator{
	SortByDateTime: func(a, b model.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	},
	SortByAmount: func(a, b model.Transaction) int {
		return a.EffectiveAmount().Cmp(b.EffectiveAmount())
	},
	SortByWithdrawal: func(a, b model.Transaction) int {
		return a.WithdrawalAmount().Cmp(b.WithdrawalAmount())
	},
	SortByCredit: func(a, b model.Transaction) int {
		return a.CreditAmount().Cmp(b.CreditAmount())
	},
	SortByRunningBalance: func(a, b model.Transaction) int {
		return a.RunningBalance.Cmp(b.RunningBalance)
	},
	SortByDescription: func(a, b model.Transaction) int {
		return strings.Compare(a.Description, b.Description)
	},
	SortByReference: func(a, b model.Transaction) int {
		return strings.Compare(a.ReferenceID, b.ReferenceID)
	},
	SortByAccountNumber: func(a, b model.Transaction) int {
		return strings.Compare(a.AccountNumber, b.AccountNumber)
	},
}

// SortFields lists every sortable field.
func SortFields() []SortField {
	return []SortField{
		SortByDateTime,
		SortByAmount,
		SortByWithdrawal,
		SortByCredit,
		SortByRunningBalance,
		SortByDescription,
		SortByReference,
		SortByAccountNumber,
	}
}

// IsSortField reports whether f is sortable.
func IsSortField(f SortField) bool {
	_, ok := comparators[f]
	return ok
}

// sortStable sorts txns in place. Ties keep their relative order in both
// directions. Unknown fields leave the order untouched.
func sortStable(txns []model.Transaction, spec SortSpec) {
	cmp, ok := comparators[spec.Field]
	if !ok {
		return
	}
	if spec.Order == Desc {
		slices.SortStableFunc(txns, func(a, b model.Transaction) int { return -cmp(a, b) })
		return
	}
	slices.SortStableFunc(txns, cmp)
}
