package commands

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/query"
)

// filterFlags are the search flags shared by search, export and browse.
type filterFlags struct {
	account     string
	from        string
	to          string
	description string
	minAmount   string
	maxAmount   string
	txnType     string
	sortBy      string
	sortOrder   string
	page        int
	size        int
}

func (f *filterFlags) register(cmd *cobra.Command, paging bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.account, "account", "", "account number (default: every account)")
	fl.StringVar(&f.from, "from", "", "start date, YYYY-MM-DD or RFC 3339 (requires --to)")
	fl.StringVar(&f.to, "to", "", "end date, YYYY-MM-DD or RFC 3339 (requires --from)")
	fl.StringVar(&f.description, "description", "", "case-insensitive description substring")
	fl.StringVar(&f.minAmount, "min", "", "minimum transaction amount")
	fl.StringVar(&f.maxAmount, "max", "", "maximum transaction amount")
	fl.StringVar(&f.txnType, "type", "", "all, debit or credit")
	if !paging {
		return
	}
	fl.StringVar(&f.sortBy, "sort", "", "sort field (dateTime, amount, withdrawal, credit, runningBalance, description, referenceId, accountNumber)")
	fl.StringVar(&f.sortOrder, "order", "", "sort order (asc, desc)")
	fl.IntVar(&f.page, "page", 1, "page number, starting at 1")
	fl.IntVar(&f.size, "size", 0, "page size (default: search.page_size)")
}

// values encodes the flags the way the HTTP API receives them, so both share
// query.ParseValues.
func (f *filterFlags) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("accountNumber", f.account)
	set("dateFrom", f.from)
	set("dateTo", f.to)
	set("description", f.description)
	set("minAmount", f.minAmount)
	set("maxAmount", f.maxAmount)
	set("type", f.txnType)
	set("sortBy", f.sortBy)
	set("sortOrder", f.sortOrder)
	if f.page > 0 {
		v.Set("page", strconv.Itoa(f.page))
	}
	if f.size > 0 {
		v.Set("size", strconv.Itoa(f.size))
	}
	return v
}

func (f *filterFlags) params() (query.Params, error) {
	return query.ParseValues(f.values())
}

// patchFrom returns the patch that sets every criterion of c.
func patchFrom(c query.FilterCriteria) query.FilterPatch {
	return query.FilterPatch{
		AccountNumber: &c.AccountNumber,
		Description:   &c.Description,
		DateFrom:      c.DateFrom,
		DateTo:        c.DateTo,
		MinAmount:     c.MinAmount,
		MaxAmount:     c.MaxAmount,
		Type:          &c.Type,
	}
}
