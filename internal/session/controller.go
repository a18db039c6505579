// Package session holds the mutable search state of one statement viewing
// session and orchestrates dataset loads and exports around it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
)

// Source supplies the dataset of an account. An empty account means every account.
type Source interface {
	Fetch(ctx context.Context, token, account string) ([]model.Transaction, error)
}

// Exporter renders the records matching criteria in the given format.
type Exporter interface {
	Export(ctx context.Context, token string, criteria query.FilterCriteria, format export.Format) (export.Payload, error)
}

// Credentials supplies the bearer token forwarded to collaborators.
type Credentials interface {
	Token() string
}

// Options configures a Controller. Every field is optional.
type Options struct {
	Source      Source
	Exporter    Exporter
	Credentials Credentials
	PageSize    int
	Sort        query.SortSpec
	// AutoApply re-runs the current search whenever a dataset is ingested.
	AutoApply bool
	Logger    *slog.Logger
}

// State is a snapshot of the controller. Slices in it are not shared with
// the controller.
type State struct {
	Account    string
	Filters    query.FilterCriteria
	Sort       query.SortSpec
	Pagination query.Pagination
	Visible    []model.Transaction
	Stats      query.Stats
	DatasetLen int
	Loading    bool
	Exporting  bool
	// Stale is set when a dataset was ingested but not yet searched.
	Stale bool
	Err   error
}

// Controller owns the filters, sort and pagination of a session and publishes
// the derived page and stats. Mutations are serialized; observers are called
// after the lock is released, in subscription order.
type Controller struct {
	mu sync.Mutex

	repo       *query.Repository
	filters    query.FilterCriteria
	sort       query.SortSpec
	pagination query.Pagination
	selected   []model.Transaction
	stats      query.Stats

	account   string
	loading   bool
	exporting int
	stale     bool
	closed    bool
	err       error

	generation uint64

	source    Source
	exporter  Exporter
	creds     Credentials
	autoApply bool

	observers    []observer
	nextObserver int

	logger *slog.Logger
}

type observer struct {
	id int
	fn func(State)
}

// New creates a controller with default criteria and an empty dataset.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pagination := query.DefaultPagination()
	if opts.PageSize > 0 {
		pagination.PageSize = opts.PageSize
	}
	sort := opts.Sort
	if sort.Field == "" {
		sort = query.DefaultSort()
	}
	if sort.Order == "" {
		sort.Order = query.Desc
	}

	return &Controller{
		repo:       query.NewRepository(nil),
		filters:    query.DefaultCriteria(),
		sort:       sort,
		pagination: pagination,
		source:     opts.Source,
		exporter:   opts.Exporter,
		creds:      opts.Credentials,
		autoApply:  opts.AutoApply,
		logger:     logger,
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Subscribe registers fn to receive every published state. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextObserver++
	id := c.nextObserver
	c.observers = append(c.observers, observer{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(o observer) bool { return o.id == id })
	}
}

// SetFilters merges patch into the current criteria. It does not search.
func (c *Controller) SetFilters(patch query.FilterPatch) State {
	c.mu.Lock()
	c.filters = c.filters.Merge(patch)
	return c.publish()
}

// Search validates the current criteria and shows page 1 of the matches.
// On invalid criteria the previous page stays visible and the error is published.
func (c *Controller) Search() (State, error) {
	c.mu.Lock()
	if err := c.validate(c.filters, c.sort); err != nil {
		c.err = err
		return c.publish(), err
	}
	c.apply(1)
	return c.publish(), nil
}

// ChangePage moves to page n of the current visible set. Pages outside
// [1, TotalPages] are ignored and reported as false.
func (c *Controller) ChangePage(n int) (State, bool) {
	c.mu.Lock()
	if n < 1 || n > c.pagination.TotalPages {
		defer c.mu.Unlock()
		return c.snapshot(), false
	}
	c.paginate(n)
	return c.publish(), true
}

// ChangeSort sorts by field. Repeating the current field toggles the order;
// a new field starts descending. The search re-runs from page 1.
func (c *Controller) ChangeSort(field query.SortField) (State, error) {
	c.mu.Lock()

	next := query.SortSpec{Field: field, Order: query.Desc}
	if field == c.sort.Field {
		next.Order = c.sort.Order.Toggle()
	}

	if err := c.validate(c.filters, next); err != nil {
		c.err = err
		return c.publish(), err
	}
	c.sort = next
	c.apply(1)
	return c.publish(), nil
}

// SetPageSize changes the page size and shows page 1.
func (c *Controller) SetPageSize(n int) (State, error) {
	c.mu.Lock()

	if n <= 0 {
		err := &CriteriaError{Errors: query.ValidateCriteria(c.filters, c.sort, query.Pagination{PageSize: n})}
		c.err = err
		return c.publish(), err
	}
	c.pagination.PageSize = n
	c.paginate(1)
	return c.publish(), nil
}

// ResetSearch clears the filters and shows the whole dataset from page 1.
// The sort is kept.
func (c *Controller) ResetSearch() State {
	c.mu.Lock()
	c.filters = query.DefaultCriteria()
	c.apply(1)
	return c.publish()
}

// IngestDataset replaces the dataset. The visible page is left as it was and
// marked stale until the next Search or ResetSearch, unless AutoApply is set.
func (c *Controller) IngestDataset(records []model.Transaction) State {
	c.mu.Lock()
	c.ingest(records)
	return c.publish()
}

func (c *Controller) ingest(records []model.Transaction) {
	c.repo.Replace(records)
	c.stale = true
	if c.autoApply {
		if err := c.validate(c.filters, c.sort); err != nil {
			c.err = err
			return
		}
		c.apply(1)
	}
}

// ClearError drops the current error.
func (c *Controller) ClearError() State {
	c.mu.Lock()
	c.err = nil
	return c.publish()
}

// Load fetches the dataset of account through the Source and re-applies the
// current criteria to it. Switching accounts clears the dataset first. If a
// later Load or Refresh starts before this one returns, this one's result is
// dropped and the state at that moment is returned without error.
func (c *Controller) Load(ctx context.Context, account string) (State, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshot(), ErrClosed
	}
	if account != c.account {
		c.account = account
		c.repo.Clear()
		c.selected = nil
		c.stats = query.Summarize(nil)
		c.pagination.PageNumber = 1
		c.pagination.TotalItems = 0
		c.pagination.TotalPages = 1
		c.stale = false
	}
	return c.fetch(ctx)
}

// Refresh re-fetches the current account.
func (c *Controller) Refresh(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshot(), ErrClosed
	}
	return c.fetch(ctx)
}

// fetch is entered with c.mu held and returns with it released.
func (c *Controller) fetch(ctx context.Context) (State, error) {
	if c.source == nil {
		err := transportError("load", errors.New("no dataset source configured"))
		c.err = err
		return c.publish(), err
	}

	c.generation++
	gen := c.generation
	account := c.account
	token := c.token()
	src := c.source
	c.loading = true
	c.err = nil
	c.publish()

	records, err := src.Fetch(ctx, token, account)

	c.mu.Lock()
	if gen != c.generation {
		defer c.mu.Unlock()
		c.logger.Debug("discarding stale dataset", "account", account, "generation", gen, "latest", c.generation)
		return c.snapshot(), nil
	}
	c.loading = false

	if err != nil {
		c.logger.Warn("loading transactions", "account", account, "error", err)
		terr := transportError("load", err)
		c.err = terr
		return c.publish(), terr
	}

	c.logger.Debug("loaded transactions", "account", account, "count", len(records))
	c.repo.Replace(records)
	if verr := c.validate(c.filters, c.sort); verr != nil {
		c.stale = true
		c.err = verr
		return c.publish(), verr
	}
	c.apply(1)
	return c.publish(), nil
}

// Export forwards the current criteria verbatim to the Exporter.
func (c *Controller) Export(ctx context.Context, format export.Format) (export.Payload, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return export.Payload{}, ErrClosed
	}
	if c.exporter == nil {
		err := transportError("export", errors.New("no exporter configured"))
		c.err = err
		c.publish()
		return export.Payload{}, err
	}

	criteria := c.filters
	token := c.token()
	exp := c.exporter
	c.exporting++
	c.err = nil
	c.publish()

	payload, err := exp.Export(ctx, token, criteria, format)

	c.mu.Lock()
	if c.exporting > 0 {
		c.exporting--
	}
	if err != nil {
		c.logger.Warn("exporting transactions", "format", format, "error", err)
		err = transportError("export", err)
		c.err = err
		c.publish()
		return export.Payload{}, err
	}
	c.publish()
	return payload, nil
}

// Close ends the session: the dataset and observers are dropped and any
// in-flight load is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.generation++
	c.repo.Clear()
	c.account = ""
	c.filters = query.DefaultCriteria()
	c.selected = nil
	c.stats = query.Summarize(nil)
	c.pagination = query.Pagination{PageNumber: 1, PageSize: c.pagination.PageSize, TotalPages: 1}
	c.loading = false
	c.exporting = 0
	c.stale = false
	c.err = nil
	c.observers = nil
}

func (c *Controller) token() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Token()
}

func (c *Controller) validate(filters query.FilterCriteria, sort query.SortSpec) error {
	errs := query.ValidateCriteria(filters, sort, c.pagination)
	if len(errs) > 0 {
		return &CriteriaError{Errors: errs}
	}
	return nil
}

// apply re-runs the search over the dataset and shows page n.
func (c *Controller) apply(n int) {
	c.selected = c.repo.Select(c.filters, c.sort)
	c.stats = query.Summarize(c.selected)
	c.stale = false
	c.err = nil
	c.paginate(n)
}

func (c *Controller) paginate(n int) {
	res := query.Paginate(c.selected, n, c.pagination.PageSize)
	c.pagination.PageNumber = res.PageNumber
	c.pagination.TotalItems = res.TotalItems
	c.pagination.TotalPages = res.TotalPages
}

func (c *Controller) snapshot() State {
	res := query.Paginate(c.selected, c.pagination.PageNumber, c.pagination.PageSize)
	return State{
		Account:    c.account,
		Filters:    c.filters,
		Sort:       c.sort,
		Pagination: c.pagination,
		Visible:    slices.Clone(res.Page),
		Stats:      c.stats,
		DatasetLen: c.repo.Len(),
		Loading:    c.loading,
		Exporting:  c.exporting > 0,
		Stale:      c.stale,
		Err:        c.err,
	}
}

// publish is entered with c.mu held. It releases the lock, then notifies
// observers with the snapshot taken under it.
func (c *Controller) publish() State {
	s := c.snapshot()
	obs := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, o := range obs {
		o.fn(s)
	}
	return s
}
