package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SampleAccount is the account number used by the demo statement.
const SampleAccount = "00770989423"

// SampleTransactions returns the demo statement loaded by "estatement init --sample".
func SampleTransactions() []Transaction {
	at := func(day, hour int) time.Time {
		return time.Date(2020, time.December, day, hour, 1, 45, 0, time.UTC)
	}
	amt := func(n int64) decimal.NullDecimal { return Amount(decimal.NewFromInt(n)) }

	return []Transaction{
		{ReferenceID: "BNK0001", AccountNumber: SampleAccount, Timestamp: at(1, 1), Description: "POS Transaction", Withdrawal: amt(2000), RunningBalance: decimal.NewFromInt(8000)},
		{ReferenceID: "BNK0002", AccountNumber: SampleAccount, Timestamp: at(2, 1), Description: "Salary Payment", Credit: amt(10000), RunningBalance: decimal.NewFromInt(18000)},
		{ReferenceID: "BNK0003", AccountNumber: SampleAccount, Timestamp: at(2, 2), Description: "Bank Interest Credit", Credit: amt(25), RunningBalance: decimal.NewFromInt(18025)},
		{ReferenceID: "BNK0004", AccountNumber: SampleAccount, Timestamp: at(3, 2), Description: "GST Deduction", Withdrawal: amt(230), RunningBalance: decimal.NewFromInt(17995)},
		{ReferenceID: "BNK0005", AccountNumber: SampleAccount, Timestamp: at(4, 2), Description: "POS Transaction", Withdrawal: amt(1500), RunningBalance: decimal.NewFromInt(16295)},
	}
}
