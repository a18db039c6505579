package model

import "github.com/shopspring/decimal"

// Account is a bank account whose statement can be browsed.
type Account struct {
	Number   string          `json:"number"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}
