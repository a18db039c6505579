package accounts

import "github.com/cleared-dev/estatement/internal/model"

// DefaultRoster returns the accounts seeded into a new configuration.
func DefaultRoster() []model.Account {
	return []model.Account{
		{Number: model.SampleAccount, Name: "Primary Savings Account", Currency: "INR"},
		{Number: "001003457803", Name: "Current Account", Currency: "INR"},
	}
}
