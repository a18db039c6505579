// Package query filters, sorts and paginates statement transactions and
// derives the summary figures shown alongside a result page.
package query

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType restricts a search to one side of the account.
type TxnType string

const (
	TypeAll    TxnType = "all"
	TypeDebit  TxnType = "debit"
	TypeCredit TxnType = "credit"
)

// FilterCriteria holds the search filters. Zero values and nil pointers mean "not set".
type FilterCriteria struct {
	AccountNumber string           `json:"accountNumber,omitempty"`
	DateFrom      *time.Time       `json:"dateFrom,omitempty"`
	DateTo        *time.Time       `json:"dateTo,omitempty"`
	Description   string           `json:"description,omitempty"`
	MinAmount     *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount     *decimal.Decimal `json:"maxAmount,omitempty"`
	Type          TxnType          `json:"type,omitempty"`
}

// DefaultCriteria returns criteria that match every transaction.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{Type: TypeAll}
}

// FilterKey names a single criterion, used to unset it in a patch.
type FilterKey string

const (
	KeyAccountNumber FilterKey = "accountNumber"
	KeyDateFrom      FilterKey = "dateFrom"
	KeyDateTo        FilterKey = "dateTo"
	KeyDescription   FilterKey = "description"
	KeyMinAmount     FilterKey = "minAmount"
	KeyMaxAmount     FilterKey = "maxAmount"
	KeyType          FilterKey = "type"
)

// FilterPatch is a partial update of FilterCriteria. Nil fields leave the
// current value unchanged; keys listed in Clear are reset before the set
// fields are applied.
type FilterPatch struct {
	AccountNumber *string
	DateFrom      *time.Time
	DateTo        *time.Time
	Description   *string
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Type          *TxnType
	Clear         []FilterKey
}

// Merge returns c with p applied.
func (c FilterCriteria) Merge(p FilterPatch) FilterCriteria {
	for _, k := range p.Clear {
		switch k {
		case KeyAccountNumber:
			c.AccountNumber = ""
		case KeyDateFrom:
			c.DateFrom = nil
		case KeyDateTo:
			c.DateTo = nil
		case KeyDescription:
			c.Description = ""
		case KeyMinAmount:
			c.MinAmount = nil
		case KeyMaxAmount:
			c.MaxAmount = nil
		case KeyType:
			c.Type = TypeAll
		}
	}

	if p.AccountNumber != nil {
		c.AccountNumber = *p.AccountNumber
	}
	if p.DateFrom != nil {
		from := *p.DateFrom
		c.DateFrom = &from
	}
	if p.DateTo != nil {
		to := *p.DateTo
		c.DateTo = &to
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.MinAmount != nil {
		lo := *p.MinAmount
		c.MinAmount = &lo
	}
	if p.MaxAmount != nil {
		hi := *p.MaxAmount
		c.MaxAmount = &hi
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	return c
}

// SortField is a sortable transaction attribute.
type SortField string

const (
	SortByDateTime       SortField = "dateTime"
	SortByAmount         SortField = "amount"
	SortByWithdrawal     SortField = "withdrawal"
	SortByCredit         SortField = "credit"
	SortByRunningBalance SortField = "runningBalance"
	SortByDescription    SortField = "description"
	SortByReference      SortField = "referenceId"
	SortByAccountNumber  SortField = "accountNumber"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Toggle returns the opposite direction.
func (o SortOrder) Toggle() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// SortSpec selects the field and direction of a sort.
type SortSpec struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort returns the default sort (newest first).
func DefaultSort() SortSpec {
	return SortSpec{Field: SortByDateTime, Order: Desc}
}

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// Pagination is the paging cursor. TotalItems and TotalPages are derived.
type Pagination struct {
	PageNumber int `json:"page"`
	PageSize   int `json:"size"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// DefaultPagination returns page 1 of DefaultPageSize.
func DefaultPagination() Pagination {
	return Pagination{PageNumber: 1, PageSize: DefaultPageSize, TotalPages: 1}
}

// Stats summarizes a filtered set.
type Stats struct {
	TotalDebits      decimal.Decimal `json:"totalDebits"`
	TotalCredits     decimal.Decimal `json:"totalCredits"`
	NetFlow          decimal.Decimal `json:"netFlow"`
	TransactionCount int             `json:"transactionCount"`
}
