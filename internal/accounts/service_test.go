package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/estatement/internal/config"
)

type mockBalances struct {
	numbers  []string
	balances map[string]decimal.Decimal
	err      error
}

func (m *mockBalances) AccountNumbers(context.Context) ([]string, error) {
	return m.numbers, m.err
}

func (m *mockBalances) LatestBalance(_ context.Context, account string) (decimal.Decimal, bool, error) {
	b, ok := m.balances[account]
	return b, ok, nil
}

func TestNewService(t *testing.T) {
	roster := DefaultRoster()
	svc := NewService(roster)

	assert.Len(t, svc.All(), 2)

	acct, ok := svc.Get("00770989423")
	assert.True(t, ok)
	assert.Equal(t, "Primary Savings Account", acct.Name)

	_, ok = svc.Get("999")
	assert.False(t, ok)
	assert.True(t, svc.Exists("001003457803"))
	assert.False(t, svc.Exists("999"))
}

func TestFromConfig(t *testing.T) {
	svc := FromConfig([]config.BankAccount{{Number: "42", Name: "Travel", Currency: "EUR"}})

	acct, ok := svc.Get("42")
	require.True(t, ok)
	assert.Equal(t, "EUR", acct.Currency)
	assert.Equal(t, []config.BankAccount{{Number: "42", Name: "Travel", Currency: "EUR"}}, svc.BankAccounts())
}

func TestLoadFromTestdata(t *testing.T) {
	svc, err := Load("../../testdata/accounts.csv")
	require.NoError(t, err)

	all := svc.All()
	require.Len(t, all, 2)
	assert.True(t, all[0].Balance.Equal(decimal.NewFromInt(16295)))
	assert.Equal(t, "Current Account", all[1].Name)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("../../testdata/no-such-roster.csv")
	assert.ErrorContains(t, err, "opening account roster")
}

func TestWithBalances(t *testing.T) {
	svc := NewService(DefaultRoster())
	store := &mockBalances{
		numbers: []string{"00770989423", "55500011"},
		balances: map[string]decimal.Decimal{
			"00770989423": decimal.NewFromInt(16295),
			"55500011":    decimal.NewFromInt(-20),
		},
	}

	got, err := svc.WithBalances(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, got[0].Balance.Equal(decimal.NewFromInt(16295)))
	assert.True(t, got[1].Balance.IsZero(), "no stored transactions")
	assert.Equal(t, "55500011", got[2].Number)
	assert.Equal(t, "Account 55500011", got[2].Name)
	assert.True(t, got[2].Balance.Equal(decimal.NewFromInt(-20)))

	// roster is not modified
	assert.True(t, svc.All()[0].Balance.IsZero())
}

func TestWithBalances_StoreError(t *testing.T) {
	svc := NewService(DefaultRoster())
	_, err := svc.WithBalances(context.Background(), &mockBalances{err: errors.New("locked")})
	assert.ErrorContains(t, err, "locked")
}
