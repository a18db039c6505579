// Package accounts keeps the roster of bank accounts whose statements can
// be browsed, with their latest running balances.
package accounts

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/config"
	"github.com/cleared-dev/estatement/internal/model"
)

// BalanceStore reports the stored accounts and their closing balances.
type BalanceStore interface {
	AccountNumbers(ctx context.Context) ([]string, error)
	LatestBalance(ctx context.Context, account string) (decimal.Decimal, bool, error)
}

// Service provides lookup over the configured accounts.
type Service struct {
	accounts []model.Account
	byNumber map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byNumber := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byNumber[a.Number] = a
	}
	return &Service{accounts: accounts, byNumber: byNumber}
}

// FromConfig builds a Service from the bank_accounts section.
func FromConfig(list []config.BankAccount) *Service {
	accts := make([]model.Account, 0, len(list))
	for _, b := range list {
		accts = append(accts, model.Account{Number: b.Number, Name: b.Name, Currency: b.Currency})
	}
	return NewService(accts)
}

// Load reads a roster CSV file.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening account roster: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading account roster: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by number.
func (s *Service) Get(number string) (model.Account, bool) {
	a, ok := s.byNumber[number]
	return a, ok
}

// Exists reports whether an account number is configured.
func (s *Service) Exists(number string) bool {
	_, ok := s.byNumber[number]
	return ok
}

// BankAccounts converts the roster to its configuration form.
func (s *Service) BankAccounts() []config.BankAccount {
	out := make([]config.BankAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, config.BankAccount{Number: a.Number, Name: a.Name, Currency: a.Currency})
	}
	return out
}

// WithBalances returns the configured accounts followed by any stored
// account missing from the roster, each with its latest running balance.
func (s *Service) WithBalances(ctx context.Context, store BalanceStore) ([]model.Account, error) {
	stored, err := store.AccountNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored accounts: %w", err)
	}

	out := slices.Clone(s.accounts)
	for _, number := range stored {
		if !s.Exists(number) {
			out = append(out, model.Account{Number: number, Name: "Account " + number})
		}
	}

	for i := range out {
		bal, ok, err := store.LatestBalance(ctx, out[i].Number)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", out[i].Number, err)
		}
		if ok {
			out[i].Balance = bal
		}
	}
	return out, nil
}
