package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionEffectiveAmount(t *testing.T) {
	tests := []struct {
		name string
		txn  Transaction
		want string
	}{
		{"withdrawal", Transaction{Withdrawal: Amount(decimal.NewFromInt(2000))}, "2000"},
		{"credit", Transaction{Credit: Amount(decimal.NewFromInt(25))}, "25"},
		{"neither", Transaction{}, "0"},
		{"zero withdrawal falls through to credit", Transaction{
			Withdrawal: Amount(decimal.Zero),
			Credit:     Amount(decimal.NewFromInt(10)),
		}, "10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.txn.EffectiveAmount().String(), tt.name)
	}
}

func TestTransactionKind(t *testing.T) {
	assert.Equal(t, KindDebit, Transaction{Withdrawal: Amount(decimal.NewFromInt(1))}.Kind())
	assert.Equal(t, KindCredit, Transaction{Credit: Amount(decimal.NewFromInt(1))}.Kind())
	assert.Equal(t, KindNeutral, Transaction{}.Kind())
	assert.Equal(t, KindNeutral, Transaction{Withdrawal: Amount(decimal.Zero)}.Kind())
}
