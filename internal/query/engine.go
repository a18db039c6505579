package query

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
)

// ErrInvalidArgument is returned for a page size below 1.
var ErrInvalidArgument = errors.New("invalid argument")

// Result is one page of a query plus the totals of the whole filtered set.
type Result struct {
	Page       []model.Transaction
	PageNumber int // clamped into [1, TotalPages]
	TotalItems int
	TotalPages int
	Stats      Stats
}

// Query filters, sorts and paginates dataset. The dataset is not modified.
// Stats and totals cover the full filtered set, not the page.
func Query(dataset []model.Transaction, criteria FilterCriteria, sort SortSpec, page Pagination) (Result, error) {
	if page.PageSize <= 0 {
		return Result{}, errors.Join(ErrInvalidArgument, errPageSize(page.PageSize))
	}

	visible := Select(dataset, criteria, sort)
	res := Paginate(visible, page.PageNumber, page.PageSize)
	res.Stats = Summarize(visible)
	return res, nil
}

// Paginate slices one page out of an already filtered and sorted set.
// The page number is clamped into [1, TotalPages]; size must be positive.
// Stats are left zero.
func Paginate(visible []model.Transaction, number, size int) Result {
	total := len(visible)
	pages := max(1, (total+size-1)/size)
	number = min(max(number, 1), pages)

	start := min((number-1)*size, total)
	end := min(start+size, total)

	return Result{
		Page:       visible[start:end:end],
		PageNumber: number,
		TotalItems: total,
		TotalPages: pages,
	}
}

// Select returns the transactions matching criteria, sorted by sort.
func Select(dataset []model.Transaction, criteria FilterCriteria, sort SortSpec) []model.Transaction {
	out := make([]model.Transaction, 0, len(dataset))
	for _, txn := range dataset {
		if matches(txn, criteria) {
			out = append(out, txn)
		}
	}
	sortStable(out, sort)
	return out
}

func matches(txn model.Transaction, c FilterCriteria) bool {
	if c.AccountNumber != "" && txn.AccountNumber != c.AccountNumber {
		return false
	}

	// A single date bound is ignored.
	if c.DateFrom != nil && c.DateTo != nil {
		if txn.Timestamp.Before(*c.DateFrom) || txn.Timestamp.After(*c.DateTo) {
			return false
		}
	}

	if c.Description != "" &&
		!strings.Contains(strings.ToLower(txn.Description), strings.ToLower(c.Description)) {
		return false
	}

	if c.MinAmount != nil || c.MaxAmount != nil {
		amount := txn.EffectiveAmount()
		if c.MinAmount != nil && amount.LessThan(*c.MinAmount) {
			return false
		}
		if c.MaxAmount != nil && amount.GreaterThan(*c.MaxAmount) {
			return false
		}
	}

	switch c.Type {
	case TypeDebit:
		return txn.IsDebit()
	case TypeCredit:
		return txn.IsCredit()
	}
	return true
}

// Summarize totals withdrawals and credits over txns.
func Summarize(txns []model.Transaction) Stats {
	debits, credits := decimal.Zero, decimal.Zero
	for _, txn := range txns {
		if txn.IsDebit() {
			debits = debits.Add(txn.WithdrawalAmount())
		}
		if txn.IsCredit() {
			credits = credits.Add(txn.CreditAmount())
		}
	}
	return Stats{
		TotalDebits:      debits,
		TotalCredits:     credits,
		NetFlow:          credits.Sub(debits),
		TransactionCount: len(txns),
	}
}
