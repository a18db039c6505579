package statement

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
)

// Column names of the e-statement CSV. Columns are located by header, so
// their order and any extra columns do not matter.
const (
	colRef         = "Txn Ref Number"
	colAccount     = "Account Number"
	colDateTime    = "Date Time"
	colDescription = "Description"
	colWithdrawals = "Withdrawals"
	colCredit      = "Credit"
	colBalance     = "Running Balance"
)

// DateTimeFormat is the layout of the Date Time column.
const DateTimeFormat = "02-01-2006 15:04"

var requiredColumns = []string{colRef, colAccount, colDateTime}

// CSVParser parses e-statement CSV exports. Rows missing a reference, account
// or valid date are skipped and logged; unreadable or negative amounts are
// dropped. Strict turns both into errors.
type CSVParser struct {
	Strict bool
	Logger *slog.Logger
}

// Format returns the parser name.
func (p *CSVParser) Format() string { return FormatCSV }

// Parse reads an e-statement CSV and returns its transactions in file order.
func (p *CSVParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	logger := loggerOr(p.Logger)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading statement header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("statement header: missing column %q", name)
		}
	}

	var txns []model.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading statement CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		txn, problems, err := unmarshalRow(field)
		if err != nil {
			if p.Strict {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			logger.Warn("skipping statement row", "line", line, "error", err)
			continue
		}
		for _, prob := range problems {
			if p.Strict {
				return nil, fmt.Errorf("row %d: %w", line, prob)
			}
			logger.Warn("ignoring amount", "line", line, "ref", txn.ReferenceID, "error", prob)
		}
		txns = append(txns, txn)
	}

	logger.Debug("parsed statement CSV", "rows", len(txns))
	return txns, nil
}

// unmarshalRow builds a transaction from one row. A returned error rejects the
// row; problems are amounts that were dropped.
func unmarshalRow(field func(string) string) (model.Transaction, []error, error) {
	ref := field(colRef)
	if ref == "" {
		return model.Transaction{}, nil, errors.New("transaction reference number is required")
	}
	account := field(colAccount)
	if account == "" {
		return model.Transaction{}, nil, errors.New("account number is required")
	}
	raw := field(colDateTime)
	if raw == "" {
		return model.Transaction{}, nil, errors.New("date/time is required")
	}
	ts, err := time.Parse(DateTimeFormat, raw)
	if err != nil {
		return model.Transaction{}, nil, fmt.Errorf("invalid date format %q", raw)
	}

	var problems []error
	withdrawal, err := parseAmount(field(colWithdrawals))
	if err != nil {
		problems = append(problems, fmt.Errorf("withdrawals: %w", err))
	}
	credit, err := parseAmount(field(colCredit))
	if err != nil {
		problems = append(problems, fmt.Errorf("credit: %w", err))
	}

	return model.Transaction{
		ReferenceID:   ref,
		AccountNumber: account,
		Timestamp:     ts,
		Description:   field(colDescription),
		Withdrawal:    withdrawal,
		Credit:        credit,
	}, problems, nil
}

// parseAmount reads an optional non-negative amount. Empty is absent; a
// negative or unreadable value is absent and reported.
func parseAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("negative amount %q", s)
	}
	if d.IsZero() {
		return decimal.NullDecimal{}, nil
	}
	return model.Amount(d), nil
}

// Header is the column row written by WriteCSV.
var Header = []string{colRef, colAccount, colDateTime, colDescription, colWithdrawals, colCredit, colBalance}

// WriteCSV writes txns as an e-statement CSV, header included.
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range txns {
		if err := cw.Write(MarshalRow(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a transaction to a CSV row in Header order.
func MarshalRow(txn model.Transaction) []string {
	row := make([]string, len(Header))
	row[0] = txn.ReferenceID
	row[1] = txn.AccountNumber
	row[2] = txn.Timestamp.Format(DateTimeFormat)
	row[3] = txn.Description
	if txn.IsDebit() {
		row[4] = txn.WithdrawalAmount().StringFixed(2)
	}
	if txn.IsCredit() {
		row[5] = txn.CreditAmount().StringFixed(2)
	}
	row[6] = txn.RunningBalance.StringFixed(2)
	return row
}
