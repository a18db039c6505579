package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
)

// MaxRows caps the number of transactions written to one export.
const MaxRows = 10000

var (
	// ErrNoTransactions is returned when nothing matches the export criteria.
	ErrNoTransactions = errors.New("no transactions found for the specified criteria")
	// ErrInvalidCriteria wraps the first validation failure of the criteria.
	ErrInvalidCriteria = errors.New("invalid export criteria")
)

// Loader supplies the stored transactions of an account ("" for all).
type Loader interface {
	TransactionsByAccount(ctx context.Context, account string) ([]model.Transaction, error)
}

// Service renders exports from a local store.
type Service struct {
	loader Loader
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns a Service reading from loader. A nil logger uses slog.Default.
func NewService(loader Loader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{loader: loader, logger: logger, now: time.Now}
}

// Export renders every transaction matching criteria, unpaginated and in the
// default sort. The token is ignored for local stores.
func (s *Service) Export(ctx context.Context, _ string, criteria query.FilterCriteria, format Format) (Payload, error) {
	renderer, err := RendererFor(format)
	if err != nil {
		return Payload{}, err
	}
	if errs := query.ValidateCriteria(criteria, query.DefaultSort(), query.DefaultPagination()); len(errs) > 0 {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidCriteria, errs[0])
	}

	dataset, err := s.loader.TransactionsByAccount(ctx, criteria.AccountNumber)
	if err != nil {
		return Payload{}, fmt.Errorf("loading transactions: %w", err)
	}

	selected := query.Select(dataset, criteria, query.DefaultSort())
	if len(selected) == 0 {
		return Payload{}, ErrNoTransactions
	}
	stats := query.Summarize(selected)
	if len(selected) > MaxRows {
		s.logger.Warn("export truncated", "rows", len(selected), "limit", MaxRows)
		selected = selected[:MaxRows]
	}

	now := s.now()
	doc := Document{
		Title:        "Account Statement",
		Criteria:     criteria,
		Transactions: selected,
		Stats:        stats,
		Generated:    now,
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		return Payload{}, err
	}

	s.logger.Info("exported transactions", "format", format, "rows", len(selected), "bytes", buf.Len())
	return Payload{
		Filename:    Filename(format, now),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
