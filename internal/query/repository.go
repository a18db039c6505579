package query

import (
	"slices"
	"sync"

	"github.com/cleared-dev/estatement/internal/model"
)

// Repository holds the loaded dataset in memory and answers queries over it.
// It is safe for concurrent use.
type Repository struct {
	mu   sync.RWMutex
	txns []model.Transaction
}

// NewRepository creates a repository holding a copy of txns.
func NewRepository(txns []model.Transaction) *Repository {
	return &Repository{txns: slices.Clone(txns)}
}

// Replace swaps the dataset.
func (r *Repository) Replace(txns []model.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = slices.Clone(txns)
}

// Clear empties the dataset.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = nil
}

// Len returns the number of records held.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.txns)
}

// Records returns a copy of the dataset in load order.
func (r *Repository) Records() []model.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.txns)
}

// Query runs Query against the held dataset.
func (r *Repository) Query(criteria FilterCriteria, sort SortSpec, page Pagination) (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Query(r.txns, criteria, sort, page)
}

// Select runs Select against the held dataset.
func (r *Repository) Select(criteria FilterCriteria, sort SortSpec) []model.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Select(r.txns, criteria, sort)
}
