package query

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/estatement/internal/model"
)

func TestSort_Fields(t *testing.T) {
	tests := []struct {
		field SortField
		want  []string
	}{
		{SortByDateTime, []string{"BNK0001", "BNK0002", "BNK0003", "BNK0004", "BNK0005"}},
		{SortByAmount, []string{"BNK0003", "BNK0004", "BNK0005", "BNK0001", "BNK0002"}},
		{SortByRunningBalance, []string{"BNK0001", "BNK0005", "BNK0004", "BNK0002", "BNK0003"}},
		{SortByDescription, []string{"BNK0003", "BNK0004", "BNK0001", "BNK0005", "BNK0002"}},
		{SortByReference, []string{"BNK0001", "BNK0002", "BNK0003", "BNK0004", "BNK0005"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			txns := model.SampleTransactions()
			sortStable(txns, SortSpec{Field: tt.field, Order: Asc})
			assert.Equal(t, tt.want, refs(txns))
		})
	}
}

func TestSort_DescReversesWithoutTies(t *testing.T) {
	asc := model.SampleTransactions()
	sortStable(asc, SortSpec{Field: SortByDateTime, Order: Asc})

	desc := model.SampleTransactions()
	sortStable(desc, SortSpec{Field: SortByDateTime, Order: Desc})

	want := refs(asc)
	slices.Reverse(want)
	assert.Equal(t, want, refs(desc))
}

func TestSort_StableOnTiesBothDirections(t *testing.T) {
	// BNK0001 and BNK0005 share a description and keep their load order.
	for _, order := range []SortOrder{Asc, Desc} {
		txns := model.SampleTransactions()
		sortStable(txns, SortSpec{Field: SortByDescription, Order: order})

		got := refs(txns)
		assert.Less(t, slices.Index(got, "BNK0001"), slices.Index(got, "BNK0005"), order)
	}
}

func TestSort_AbsentAmountsCompareAsZero(t *testing.T) {
	txns := []model.Transaction{
		{ReferenceID: "A", Credit: model.Amount(decimal.NewFromInt(5))},
		{ReferenceID: "B"},
		{ReferenceID: "C", Withdrawal: model.Amount(decimal.NewFromInt(1))},
	}
	sortStable(txns, SortSpec{Field: SortByWithdrawal, Order: Asc})
	assert.Equal(t, []string{"A", "B", "C"}, refs(txns))

	sortStable(txns, SortSpec{Field: SortByCredit, Order: Desc})
	assert.Equal(t, []string{"A", "B", "C"}, refs(txns))
}

func TestSort_DescriptionIsCaseSensitive(t *testing.T) {
	txns := []model.Transaction{
		{ReferenceID: "lower", Description: "atm"},
		{ReferenceID: "upper", Description: "ZZZ"},
	}
	sortStable(txns, SortSpec{Field: SortByDescription, Order: Asc})
	assert.Equal(t, []string{"upper", "lower"}, refs(txns))
}

func TestSort_UnknownFieldKeepsOrder(t *testing.T) {
	txns := model.SampleTransactions()
	txns[0].Timestamp = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	sortStable(txns, SortSpec{Field: "bogus", Order: Desc})
	assert.Equal(t, refs(model.SampleTransactions()), refs(txns))
}

func TestSortOrder_Toggle(t *testing.T) {
	assert.Equal(t, Desc, Asc.Toggle())
	assert.Equal(t, Asc, Desc.Toggle())
}
