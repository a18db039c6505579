package commands

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7c3aed")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#737373"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#737373"))
)

// renderTable renders rows as a bordered table. Columns listed in right are
// right-aligned.
func renderTable(headers []string, rows [][]string, right ...int) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case slices.Contains(right, col):
				return amountStyle
			default:
				return cellStyle
			}
		}).
		Render()
}

func transactionRows(txns []model.Transaction) [][]string {
	rows := make([][]string, len(txns))
	for i, t := range txns {
		rows[i] = []string{
			t.ReferenceID,
			t.AccountNumber,
			t.Timestamp.Format(export.DateTimeLayout),
			t.Description,
			optionalAmount(t.Withdrawal),
			optionalAmount(t.Credit),
			export.FormatAmount(t.RunningBalance),
		}
	}
	return rows
}

func optionalAmount(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return export.FormatAmount(v.Decimal)
}

func printTransactions(w io.Writer, txns []model.Transaction) {
	headers := []string{"Ref Number", "Account", "Date & Time", "Description", "Withdrawal", "Credit", "Balance"}
	fmt.Fprintln(w, renderTable(headers, transactionRows(txns), 4, 5, 6))
}

func printStats(w io.Writer, p query.Pagination, stats query.Stats) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Page %d of %d · %d matching transactions", p.PageNumber, p.TotalPages, p.TotalItems)))
	for _, line := range export.StatsLines(stats) {
		fmt.Fprintln(w, line)
	}
}
