package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
)

// DateTimeLayout is how transaction times are printed in exports.
const DateTimeLayout = "02-01-2006 15:04"

// Columns of the transaction table, in order.
var Columns = []string{"Ref Number", "Date & Time", "Description", "Withdrawals", "Credit", "Balance"}

// Document is everything a renderer needs to produce one export.
type Document struct {
	Title        string
	Criteria     query.FilterCriteria
	Transactions []model.Transaction
	Stats        query.Stats
	Generated    time.Time
}

// Renderer writes a Document in one format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// RendererFor returns the renderer of format f.
func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatPDF:
		return PDFRenderer{}, nil
	case FormatExcel:
		return ExcelRenderer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// CriteriaLines describes the criteria of a document for its header.
func CriteriaLines(c query.FilterCriteria) []string {
	account := c.AccountNumber
	if account == "" {
		account = "All accounts"
	}
	lines := []string{
		"Account Number: " + account,
		fmt.Sprintf("Period: %s to %s", formatDay(c.DateFrom), formatDay(c.DateTo)),
	}
	if c.Description != "" {
		lines = append(lines, fmt.Sprintf("Description contains: %q", c.Description))
	}
	if c.MinAmount != nil || c.MaxAmount != nil {
		lines = append(lines, fmt.Sprintf("Amount: %s to %s", formatBound(c.MinAmount), formatBound(c.MaxAmount)))
	}
	if c.Type != "" && c.Type != query.TypeAll {
		lines = append(lines, "Type: "+string(c.Type))
	}
	return lines
}

// StatsLines describes the summary figures for the footer.
func StatsLines(s query.Stats) []string {
	return []string{
		fmt.Sprintf("Transactions: %d", s.TransactionCount),
		"Total Debits: " + FormatAmount(s.TotalDebits),
		"Total Credits: " + FormatAmount(s.TotalCredits),
		"Net Flow: " + FormatAmount(s.NetFlow),
	}
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(time.DateOnly)
}

func formatBound(d *decimal.Decimal) string {
	if d == nil {
		return "any"
	}
	return FormatAmount(*d)
}

// FormatAmount prints d with two decimals and thousands separators.
func FormatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func formatOptional(d decimal.NullDecimal) string {
	if !d.Valid {
		return FormatAmount(decimal.Zero)
	}
	return FormatAmount(d.Decimal)
}
