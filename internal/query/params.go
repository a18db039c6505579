package query

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Accepted layouts for date parameters, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a date parameter in one of the accepted layouts.
// Layouts without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: want YYYY-MM-DD or RFC 3339", s)
}

// Params is a full search request decoded from URL values.
type Params struct {
	Criteria   FilterCriteria
	Sort       SortSpec
	Pagination Pagination
}

// ParseValues decodes query string parameters. Missing parameters take the
// defaults. Pages are 1-indexed.
func ParseValues(v url.Values) (Params, error) {
	p := Params{
		Criteria:   DefaultCriteria(),
		Sort:       DefaultSort(),
		Pagination: DefaultPagination(),
	}

	p.Criteria.AccountNumber = v.Get("accountNumber")
	p.Criteria.Description = v.Get("description")

	if s := v.Get("dateFrom"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return Params{}, err
		}
		p.Criteria.DateFrom = &t
	}
	if s := v.Get("dateTo"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return Params{}, err
		}
		p.Criteria.DateTo = &t
	}

	if s := v.Get("minAmount"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Params{}, fmt.Errorf("parsing minAmount %q: %w", s, err)
		}
		p.Criteria.MinAmount = &d
	}
	if s := v.Get("maxAmount"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Params{}, fmt.Errorf("parsing maxAmount %q: %w", s, err)
		}
		p.Criteria.MaxAmount = &d
	}

	if s := v.Get("type"); s != "" {
		p.Criteria.Type = TxnType(s)
	}
	if s := v.Get("sortBy"); s != "" {
		p.Sort.Field = SortField(s)
	}
	if s := v.Get("sortOrder"); s != "" {
		p.Sort.Order = SortOrder(s)
	}

	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, fmt.Errorf("parsing page %q: %w", s, err)
		}
		p.Pagination.PageNumber = n
	}
	if s := v.Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, fmt.Errorf("parsing size %q: %w", s, err)
		}
		p.Pagination.PageSize = n
	}

	return p, nil
}

// Values encodes a search as query string parameters accepted by ParseValues.
func (p Params) Values() url.Values {
	v := url.Values{}
	c := p.Criteria
	if c.AccountNumber != "" {
		v.Set("accountNumber", c.AccountNumber)
	}
	if c.DateFrom != nil {
		v.Set("dateFrom", c.DateFrom.Format(time.RFC3339))
	}
	if c.DateTo != nil {
		v.Set("dateTo", c.DateTo.Format(time.RFC3339))
	}
	if c.Description != "" {
		v.Set("description", c.Description)
	}
	if c.MinAmount != nil {
		v.Set("minAmount", c.MinAmount.String())
	}
	if c.MaxAmount != nil {
		v.Set("maxAmount", c.MaxAmount.String())
	}
	if c.Type != "" && c.Type != TypeAll {
		v.Set("type", string(c.Type))
	}
	if p.Sort.Field != "" {
		v.Set("sortBy", string(p.Sort.Field))
	}
	if p.Sort.Order != "" {
		v.Set("sortOrder", string(p.Sort.Order))
	}
	if p.Pagination.PageNumber > 0 {
		v.Set("page", strconv.Itoa(p.Pagination.PageNumber))
	}
	if p.Pagination.PageSize > 0 {
		v.Set("size", strconv.Itoa(p.Pagination.PageSize))
	}
	return v
}
