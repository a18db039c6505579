package statement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/cleared-dev/estatement/internal/balance"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/uploadlog"
)

// Store persists imported transactions.
type Store interface {
	balance.Store
	ExistingReferences(ctx context.Context, refs []string) (map[string]bool, error)
	SaveTransactions(ctx context.Context, txns []model.Transaction, uploadID string) (int, error)
}

// History records the outcome of each import.
type History interface {
	Append(entries ...uploadlog.Entry) error
}

// Service imports statement files into a Store.
type Service struct {
	store    Store
	history  History
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates an import Service. history may be nil.
func NewService(store Store, history History, registry *Registry, logger *slog.Logger) *Service {
	logger = loggerOr(logger)
	if registry == nil {
		registry = DefaultRegistry(logger)
	}
	return &Service{
		store:    store,
		history:  history,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// ImportResult summarizes one import.
type ImportResult struct {
	UploadID   string   `json:"uploadId"`
	Parsed     int      `json:"parsed"`
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Accounts   []string `json:"accounts"`
}

// Import parses r as a statement in format, stores the transactions whose
// references are not already stored, and recomputes the running balances of
// every account that gained transactions. The outcome is appended to the
// upload history.
func (s *Service) Import(ctx context.Context, name, format string, r io.Reader) (ImportResult, error) {
	res := ImportResult{UploadID: uploadlog.NewID()}
	counter := &countingReader{r: r}

	res, err := s.importFrom(ctx, res, format, counter)

	entry := uploadlog.Entry{
		ID:          res.UploadID,
		Timestamp:   s.now().UTC(),
		FileName:    name,
		Size:        counter.n,
		Format:      format,
		Status:      uploadlog.StatusCompleted,
		RecordCount: res.Inserted,
	}
	if err != nil {
		entry.Status = uploadlog.StatusFailed
		entry.Error = err.Error()
		s.logger.Error("statement import failed", "file", name, "error", err)
	} else {
		s.logger.Info("imported statement",
			"file", name,
			"parsed", res.Parsed,
			"inserted", res.Inserted,
			"duplicates", res.Duplicates,
			"accounts", len(res.Accounts))
	}

	if s.history != nil {
		if herr := s.history.Append(entry); herr != nil {
			s.logger.Warn("recording upload", "file", name, "error", herr)
		}
	}
	return res, err
}

func (s *Service) importFrom(ctx context.Context, res ImportResult, format string, r io.Reader) (ImportResult, error) {
	parser := s.registry.Get(format)
	if parser == nil {
		return res, fmt.Errorf("%w: format %q", ErrUnsupportedFile, format)
	}

	parsed, err := parser.Parse(ctx, r)
	if err != nil {
		return res, fmt.Errorf("parsing statement: %w", err)
	}
	res.Parsed = len(parsed)
	if len(parsed) == 0 {
		return res, nil
	}

	// Keep the first occurrence of a reference within the file.
	seen := make(map[string]bool, len(parsed))
	unique := parsed[:0:0]
	for _, txn := range parsed {
		if seen[txn.ReferenceID] {
			continue
		}
		seen[txn.ReferenceID] = true
		unique = append(unique, txn)
	}

	refs := make([]string, len(unique))
	for i, txn := range unique {
		refs[i] = txn.ReferenceID
	}
	existing, err := s.store.ExistingReferences(ctx, refs)
	if err != nil {
		return res, fmt.Errorf("checking existing transactions: %w", err)
	}

	fresh := slices.DeleteFunc(unique, func(t model.Transaction) bool { return existing[t.ReferenceID] })
	res.Duplicates = res.Parsed - len(fresh)
	if len(fresh) == 0 {
		return res, nil
	}

	inserted, err := s.store.SaveTransactions(ctx, fresh, res.UploadID)
	if err != nil {
		return res, fmt.Errorf("saving transactions: %w", err)
	}
	res.Inserted = inserted

	for _, txn := range fresh {
		if !slices.Contains(res.Accounts, txn.AccountNumber) {
			res.Accounts = append(res.Accounts, txn.AccountNumber)
		}
	}
	slices.Sort(res.Accounts)

	for _, account := range res.Accounts {
		closing, err := balance.Recompute(ctx, s.store, account)
		if err != nil {
			return res, err
		}
		s.logger.Debug("recomputed balances", "account", account, "closing", closing.StringFixed(2))
	}
	return res, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
