package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
)

const (
	numFields   = 4
	colNumber   = 0
	colName     = 1
	colCurrency = 2
	colBalance  = 3
)

// Header is the first row of a roster CSV.
var Header = []string{"account_number", "account_name", "currency", "balance"}

// ReadAccounts reads a roster CSV. The balance column may be empty.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts as a roster CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.Number
	row[colName] = acct.Name
	row[colCurrency] = acct.Currency
	row[colBalance] = acct.Balance.StringFixed(2)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	number := strings.TrimSpace(record[colNumber])
	if number == "" {
		return model.Account{}, errors.New("account_number is required")
	}

	var balance decimal.Decimal
	if s := strings.TrimSpace(record[colBalance]); s != "" {
		var err error
		balance, err = decimal.NewFromString(s)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing balance %q: %w", s, err)
		}
	}

	return model.Account{
		Number:   number,
		Name:     strings.TrimSpace(record[colName]),
		Currency: strings.TrimSpace(record[colCurrency]),
		Balance:  balance,
	}, nil
}
