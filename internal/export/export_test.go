package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
)

type fakeLoader struct {
	txns    []model.Transaction
	err     error
	account string
}

func (f *fakeLoader) TransactionsByAccount(_ context.Context, account string) ([]model.Transaction, error) {
	f.account = account
	return f.txns, f.err
}

func fixedService(l Loader) *Service {
	s := NewService(l, nil)
	s.now = func() time.Time { return time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"pdf", FormatPDF, false},
		{"PDF", FormatPDF, false},
		{"excel", FormatExcel, false},
		{" xlsx ", FormatExcel, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilename(t *testing.T) {
	day := time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "transactions-export-2024-03-05.pdf", Filename(FormatPDF, day))
	assert.Equal(t, "transactions-export-2024-03-05.xlsx", Filename(FormatExcel, day))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatExcel.ContentType())
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"0":          "0.00",
		"25":         "25.00",
		"999.999":    "1,000.00",
		"1500":       "1,500.00",
		"1234567.5":  "1,234,567.50",
		"-3730":      "-3,730.00",
		"-0.5":       "-0.50",
		"100000":     "100,000.00",
		"12345678.9": "12,345,678.90",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestCriteriaLines(t *testing.T) {
	assert.Equal(t, []string{"Account Number: All accounts", "Period: N/A to N/A"}, CriteriaLines(query.DefaultCriteria()))

	from := time.Date(2020, time.December, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, time.December, 4, 0, 0, 0, 0, time.UTC)
	lo := decimal.NewFromInt(100)
	lines := CriteriaLines(query.FilterCriteria{
		AccountNumber: model.SampleAccount,
		DateFrom:      &from,
		DateTo:        &to,
		Description:   "pos",
		MinAmount:     &lo,
		Type:          query.TypeDebit,
	})
	assert.Equal(t, []string{
		"Account Number: 00770989423",
		"Period: 2020-12-01 to 2020-12-04",
		`Description contains: "pos"`,
		"Amount: 100.00 to any",
		"Type: debit",
	}, lines)
}

func TestService_ExportExcel(t *testing.T) {
	loader := &fakeLoader{txns: model.SampleTransactions()}
	svc := fixedService(loader)

	criteria := query.FilterCriteria{AccountNumber: model.SampleAccount, Type: query.TypeDebit}
	payload, err := svc.Export(context.Background(), "token", criteria, FormatExcel)
	require.NoError(t, err)

	assert.Equal(t, model.SampleAccount, loader.account)
	assert.Equal(t, "transactions-export-2024-03-05.xlsx", payload.Filename)
	assert.Equal(t, FormatExcel.ContentType(), payload.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(payload.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Transactions", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Columns, rows[0])
	// default sort is newest first
	assert.Equal(t, "BNK0005", rows[1][0])
	assert.Equal(t, "BNK0004", rows[2][0])
	assert.Equal(t, "BNK0001", rows[3][0])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	var flat []string
	for _, r := range summary {
		flat = append(flat, r...)
	}
	assert.Contains(t, flat, "Account Statement")
	assert.Contains(t, flat, "Type: debit")
	assert.Contains(t, flat, "Total Debits: 3,730.00")
	assert.Contains(t, flat, "Transactions: 3")
}

func TestService_ExportPDF(t *testing.T) {
	svc := fixedService(&fakeLoader{txns: model.SampleTransactions()})

	payload, err := svc.Export(context.Background(), "", query.DefaultCriteria(), FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "transactions-export-2024-03-05.pdf", payload.Filename)
	assert.Equal(t, "application/pdf", payload.ContentType)
	assert.True(t, bytes.HasPrefix(payload.Data, []byte("%PDF-")))
}

func TestService_ExportNoMatches(t *testing.T) {
	svc := fixedService(&fakeLoader{txns: model.SampleTransactions()})

	_, err := svc.Export(context.Background(), "", query.FilterCriteria{Description: "nothing like this"}, FormatPDF)
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestService_ExportErrors(t *testing.T) {
	svc := fixedService(&fakeLoader{err: errors.New("disk gone")})

	_, err := svc.Export(context.Background(), "", query.DefaultCriteria(), FormatExcel)
	assert.ErrorContains(t, err, "disk gone")

	_, err = svc.Export(context.Background(), "", query.DefaultCriteria(), Format("csv"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.Export(context.Background(), "", query.FilterCriteria{Type: "sideways"}, FormatPDF)
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}
