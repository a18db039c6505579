package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/estatement/internal/model"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func refs(txns []model.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.ReferenceID
	}
	return out
}

func page(size int) Pagination {
	return Pagination{PageNumber: 1, PageSize: size}
}

func TestQuery_AllMatchesEverything(t *testing.T) {
	data := model.SampleTransactions()
	res, err := Query(data, DefaultCriteria(), DefaultSort(), page(10))
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalItems)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, []string{"BNK0005", "BNK0004", "BNK0003", "BNK0002", "BNK0001"}, refs(res.Page))
}

func TestQuery_DebitFilter(t *testing.T) {
	res, err := Query(model.SampleTransactions(), FilterCriteria{Type: TypeDebit}, SortSpec{Field: SortByDateTime, Order: Asc}, page(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"BNK0001", "BNK0004", "BNK0005"}, refs(res.Page))
	assert.True(t, res.Stats.TotalDebits.Equal(decimal.NewFromInt(3730)))
	assert.True(t, res.Stats.TotalCredits.IsZero())
	assert.True(t, res.Stats.NetFlow.Equal(decimal.NewFromInt(-3730)))
	assert.Equal(t, 3, res.Stats.TransactionCount)
}

func TestQuery_CreditFilter(t *testing.T) {
	res, err := Query(model.SampleTransactions(), FilterCriteria{Type: TypeCredit}, SortSpec{Field: SortByDateTime, Order: Asc}, page(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"BNK0002", "BNK0003"}, refs(res.Page))
	assert.True(t, res.Stats.TotalCredits.Equal(decimal.NewFromInt(10025)))
}

func TestQuery_AmountRange(t *testing.T) {
	c := FilterCriteria{MinAmount: dec("1000"), MaxAmount: dec("20000")}
	res, err := Query(model.SampleTransactions(), c, SortSpec{Field: SortByDateTime, Order: Asc}, page(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"BNK0001", "BNK0002", "BNK0005"}, refs(res.Page))
}

func TestQuery_AmountBoundsInclusive(t *testing.T) {
	c := FilterCriteria{MinAmount: dec("230"), MaxAmount: dec("1500")}
	res, err := Query(model.SampleTransactions(), c, SortSpec{Field: SortByDateTime, Order: Asc}, page(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"BNK0004", "BNK0005"}, refs(res.Page))
}

func TestQuery_MinAboveMaxIsEmpty(t *testing.T) {
	c := FilterCriteria{MinAmount: dec("5000"), MaxAmount: dec("10")}
	res, err := Query(model.SampleTransactions(), c, DefaultSort(), page(10))
	require.NoError(t, err)

	assert.Empty(t, res.Page)
	assert.Equal(t, 0, res.TotalItems)
	assert.Equal(t, 1, res.TotalPages)
	assert.True(t, res.Stats.NetFlow.IsZero())
}

func TestQuery_DescriptionCaseInsensitive(t *testing.T) {
	res, err := Query(model.SampleTransactions(), FilterCriteria{Description: "pos trans"}, DefaultSort(), page(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"BNK0005", "BNK0001"}, refs(res.Page))
}

func TestQuery_AccountExactMatch(t *testing.T) {
	data := append(model.SampleTransactions(), model.Transaction{
		ReferenceID:   "OTH0001",
		AccountNumber: "001003457803",
		Timestamp:     time.Date(2020, 12, 5, 0, 0, 0, 0, time.UTC),
		Credit:        model.Amount(decimal.NewFromInt(1)),
	})

	res, err := Query(data, FilterCriteria{AccountNumber: "001003457803"}, DefaultSort(), page(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"OTH0001"}, refs(res.Page))

	res, err = Query(data, FilterCriteria{AccountNumber: "0010034578"}, DefaultSort(), page(10))
	require.NoError(t, err)
	assert.Empty(t, res.Page)
}

func TestQuery_DateRange(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{
			name:     "both bounds inclusive",
			criteria: FilterCriteria{DateFrom: date(2020, 12, 2), DateTo: ptr(time.Date(2020, 12, 3, 2, 1, 45, 0, time.UTC))},
			want:     []string{"BNK0002", "BNK0003", "BNK0004"},
		},
		{
			name:     "only from is ignored",
			criteria: FilterCriteria{DateFrom: date(2020, 12, 4)},
			want:     []string{"BNK0001", "BNK0002", "BNK0003", "BNK0004", "BNK0005"},
		},
		{
			name:     "only to is ignored",
			criteria: FilterCriteria{DateTo: date(2020, 12, 1)},
			want:     []string{"BNK0001", "BNK0002", "BNK0003", "BNK0004", "BNK0005"},
		},
		{
			name:     "reversed bounds match nothing",
			criteria: FilterCriteria{DateFrom: date(2020, 12, 4), DateTo: date(2020, 12, 1)},
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Query(model.SampleTransactions(), tt.criteria, SortSpec{Field: SortByDateTime, Order: Asc}, page(10))
			require.NoError(t, err)
			assert.Equal(t, tt.want, refs(res.Page))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestQuery_NeutralRecordIsNeitherSide(t *testing.T) {
	data := []model.Transaction{{ReferenceID: "N1", Withdrawal: model.Amount(decimal.Zero)}}

	for _, typ := range []TxnType{TypeDebit, TypeCredit} {
		res, err := Query(data, FilterCriteria{Type: typ}, DefaultSort(), page(10))
		require.NoError(t, err)
		assert.Empty(t, res.Page, typ)
	}

	res, err := Query(data, DefaultCriteria(), DefaultSort(), page(10))
	require.NoError(t, err)
	assert.Len(t, res.Page, 1)
	assert.True(t, res.Stats.TotalDebits.IsZero())
	assert.True(t, res.Stats.TotalCredits.IsZero())
}

func TestQuery_PaginationCoversEveryRecord(t *testing.T) {
	data := model.SampleTransactions()
	for size := 1; size <= 7; size++ {
		first, err := Query(data, DefaultCriteria(), DefaultSort(), page(size))
		require.NoError(t, err)

		var seen []string
		for p := 1; p <= first.TotalPages; p++ {
			res, err := Query(data, DefaultCriteria(), DefaultSort(), Pagination{PageNumber: p, PageSize: size})
			require.NoError(t, err)
			seen = append(seen, refs(res.Page)...)
		}
		assert.Len(t, seen, first.TotalItems, "size %d", size)
		assert.ElementsMatch(t, refs(data), seen, "size %d", size)
	}
}

func TestQuery_PageClampedForSlicing(t *testing.T) {
	data := model.SampleTransactions()

	res, err := Query(data, DefaultCriteria(), DefaultSort(), Pagination{PageNumber: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 3, res.PageNumber)
	assert.Equal(t, []string{"BNK0001"}, refs(res.Page))

	res, err = Query(data, DefaultCriteria(), DefaultSort(), Pagination{PageNumber: -1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PageNumber)
	assert.Equal(t, []string{"BNK0005", "BNK0004"}, refs(res.Page))
}

func TestQuery_StatsCoverFilteredSetNotPage(t *testing.T) {
	res, err := Query(model.SampleTransactions(), FilterCriteria{Type: TypeDebit}, DefaultSort(), page(1))
	require.NoError(t, err)

	assert.Len(t, res.Page, 1)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.Stats.TotalDebits.Equal(decimal.NewFromInt(3730)))
}

func TestQuery_RejectsNonPositivePageSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := Query(model.SampleTransactions(), DefaultCriteria(), DefaultSort(), Pagination{PageNumber: 1, PageSize: size})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestQuery_Idempotent(t *testing.T) {
	data := model.SampleTransactions()
	c := FilterCriteria{Description: "pos", MinAmount: dec("100")}

	a, err := Query(data, c, DefaultSort(), page(2))
	require.NoError(t, err)
	b, err := Query(data, c, DefaultSort(), page(2))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestQuery_DoesNotReorderDataset(t *testing.T) {
	data := model.SampleTransactions()
	_, err := Query(data, DefaultCriteria(), SortSpec{Field: SortByAmount, Order: Desc}, page(10))
	require.NoError(t, err)
	assert.Equal(t, refs(model.SampleTransactions()), refs(data))
}

func TestSummarize_NetFlow(t *testing.T) {
	s := Summarize(model.SampleTransactions())
	assert.True(t, s.TotalDebits.Equal(decimal.NewFromInt(3730)))
	assert.True(t, s.TotalCredits.Equal(decimal.NewFromInt(10025)))
	assert.True(t, s.NetFlow.Equal(s.TotalCredits.Sub(s.TotalDebits)))
	assert.Equal(t, 5, s.TransactionCount)
}

func TestRepository(t *testing.T) {
	data := model.SampleTransactions()
	repo := NewRepository(data)
	data[0].Description = "mutated"

	assert.Equal(t, 5, repo.Len())
	assert.Equal(t, "POS Transaction", repo.Records()[0].Description)

	res, err := repo.Query(FilterCriteria{Type: TypeCredit}, DefaultSort(), page(10))
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalItems)

	repo.Replace(data[:2])
	assert.Equal(t, 2, repo.Len())

	repo.Clear()
	assert.Equal(t, 0, repo.Len())
	res, err = repo.Query(DefaultCriteria(), DefaultSort(), page(10))
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalPages)
	assert.Empty(t, res.Page)
}
