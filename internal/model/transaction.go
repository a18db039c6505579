package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a transaction by the side of the account it moved.
type Kind string

const (
	KindDebit   Kind = "debit"
	KindCredit  Kind = "credit"
	KindNeutral Kind = "neutral"
)

// Transaction is one statement line. Values are treated as immutable once loaded.
type Transaction struct {
	ReferenceID    string              `json:"referenceId"`
	AccountNumber  string              `json:"accountNumber"`
	Timestamp      time.Time           `json:"dateTime"`
	Description    string              `json:"description"`
	Withdrawal     decimal.NullDecimal `json:"withdrawal"`
	Credit         decimal.NullDecimal `json:"credit"`
	RunningBalance decimal.Decimal     `json:"runningBalance"`
}

// WithdrawalAmount returns the withdrawal, or zero when absent.
func (t Transaction) WithdrawalAmount() decimal.Decimal {
	if !t.Withdrawal.Valid {
		return decimal.Zero
	}
	return t.Withdrawal.Decimal
}

// CreditAmount returns the credit, or zero when absent.
func (t Transaction) CreditAmount() decimal.Decimal {
	if !t.Credit.Valid {
		return decimal.Zero
	}
	return t.Credit.Decimal
}

// EffectiveAmount is the withdrawal if present, else the credit if present, else zero.
// A zero amount counts as absent.
func (t Transaction) EffectiveAmount() decimal.Decimal {
	if w := t.WithdrawalAmount(); !w.IsZero() {
		return w
	}
	return t.CreditAmount()
}

// IsDebit reports whether the transaction carries a positive withdrawal.
func (t Transaction) IsDebit() bool {
	return t.WithdrawalAmount().IsPositive()
}

// IsCredit reports whether the transaction carries a positive credit.
func (t Transaction) IsCredit() bool {
	return t.CreditAmount().IsPositive()
}

// Kind returns debit, credit, or neutral for a record with neither amount.
func (t Transaction) Kind() Kind {
	switch {
	case t.IsDebit():
		return KindDebit
	case t.IsCredit():
		return KindCredit
	default:
		return KindNeutral
	}
}

// Amount wraps a decimal as a present optional amount.
func Amount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
