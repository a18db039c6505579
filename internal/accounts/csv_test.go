package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/estatement/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{Number: "00770989423", Name: "Primary Savings Account", Currency: "INR", Balance: decimal.NewFromInt(16295)},
		{Number: "001003457803", Name: "Current, Joint", Currency: "INR"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, accounts[0].Number, got[0].Number)
	assert.True(t, accounts[0].Balance.Equal(got[0].Balance))
	assert.Equal(t, "Current, Joint", got[1].Name)
	assert.True(t, got[1].Balance.IsZero())
}

func TestMarshalAccount(t *testing.T) {
	row := MarshalAccount(model.Account{Number: "1", Name: "A", Currency: "INR", Balance: decimal.RequireFromString("12.5")})
	assert.Equal(t, []string{"1", "A", "INR", "12.50"}, row)
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		want   string
	}{
		{"wrong field count", []string{"1", "A"}, "expected 4 fields"},
		{"missing number", []string{" ", "A", "INR", ""}, "account_number is required"},
		{"bad balance", []string{"1", "A", "INR", "lots"}, "parsing balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalAccount(tt.record)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadAccounts_BadRowReportsLine(t *testing.T) {
	in := strings.Join(Header, ",") + "\n1,A,INR,\n2,B,INR,oops\n"
	_, err := ReadAccounts(strings.NewReader(in))
	assert.ErrorContains(t, err, "row 3")
}
