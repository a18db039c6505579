package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
)

// SQLite limits bound parameters per statement.
const maxParams = 500

const selectColumns = `ref, account_number, date_time, description, withdrawal, credit, running_balance`

// ErrNotFound is returned when a looked-up transaction is not stored.
var ErrNotFound = errors.New("transaction not found")

// SaveTransactions inserts txns, ignoring references that are already stored,
// and returns how many rows were inserted.
func (s *DB) SaveTransactions(ctx context.Context, txns []model.Transaction, uploadID string) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			ref, account_number, date_time, description, withdrawal, credit, running_balance, upload_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, t := range txns {
		res, err := stmt.ExecContext(ctx,
			t.ReferenceID,
			t.AccountNumber,
			t.Timestamp.UTC(),
			t.Description,
			t.Withdrawal,
			t.Credit,
			t.RunningBalance,
			uploadID,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", t.ReferenceID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", t.ReferenceID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transactions: %w", err)
	}
	return inserted, nil
}

// ExistingReferences returns which of refs are already stored.
func (s *DB) ExistingReferences(ctx context.Context, refs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(refs); start += maxParams {
		chunk := refs[start:min(start+maxParams, len(refs))]

		args := make([]any, len(chunk))
		for i, r := range chunk {
			args[i] = r
		}
		q := `SELECT ref FROM transactions WHERE ref IN (?` + strings.Repeat(",?", len(chunk)-1) + `)`

		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("querying existing references: %w", err)
		}
		for rows.Next() {
			var ref string
			if err := rows.Scan(&ref); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scanning reference: %w", err)
			}
			found[ref] = true
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating references: %w", err)
		}
	}
	return found, nil
}

// TransactionsByAccount returns the transactions of account in posting order,
// ties in insertion order. An empty account returns every transaction.
func (s *DB) TransactionsByAccount(ctx context.Context, account string) ([]model.Transaction, error) {
	q := `SELECT ` + selectColumns + ` FROM transactions`
	var args []any
	if account != "" {
		q += ` WHERE account_number = ?`
		args = append(args, account)
	}
	q += ` ORDER BY date_time, rowid`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return txns, nil
}

// TransactionByReference returns the transaction with the bank reference ref.
func (s *DB) TransactionByReference(ctx context.Context, ref string) (model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM transactions WHERE ref = ?`, ref)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(rows rowScanner) (model.Transaction, error) {
	var t model.Transaction
	if err := rows.Scan(
		&t.ReferenceID,
		&t.AccountNumber,
		&t.Timestamp,
		&t.Description,
		&t.Withdrawal,
		&t.Credit,
		&t.RunningBalance,
	); err != nil {
		return model.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}
	t.Timestamp = t.Timestamp.UTC()
	return t, nil
}

// UpdateRunningBalances sets the running balance of each referenced transaction.
func (s *DB) UpdateRunningBalances(ctx context.Context, balances map[string]decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `UPDATE transactions SET running_balance = ? WHERE ref = ?`)
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for ref, bal := range balances {
		if _, err := stmt.ExecContext(ctx, bal, ref); err != nil {
			return fmt.Errorf("updating balance of %s: %w", ref, err)
		}
	}
	return tx.Commit()
}

// AccountNumbers returns every account with stored transactions, sorted.
func (s *DB) AccountNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT account_number FROM transactions ORDER BY account_number`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestBalance returns the running balance after the last posted
// transaction of account. ok is false when the account has none.
func (s *DB) LatestBalance(ctx context.Context, account string) (bal decimal.Decimal, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT running_balance FROM transactions
		WHERE account_number = ?
		ORDER BY date_time DESC, rowid DESC
		LIMIT 1`, account).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("querying balance of %s: %w", account, err)
	}
	return bal, true, nil
}

// Count returns the number of stored transactions.
func (s *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return n, nil
}

// Fetch returns the dataset of account for a viewing session. The local
// store has no access control, so the token is ignored.
func (s *DB) Fetch(ctx context.Context, _ string, account string) ([]model.Transaction, error) {
	return s.TransactionsByAccount(ctx, account)
}
