package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetTransactions = "Transactions"
	sheetSummary      = "Summary"
)

// ExcelRenderer writes an xlsx workbook with a Transactions sheet and a
// Summary sheet holding the criteria and totals.
type ExcelRenderer struct{}

func (ExcelRenderer) Render(w io.Writer, doc Document) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	styles, err := newExcelStyles(f)
	if err != nil {
		return err
	}
	if err := writeTransactionSheet(f, doc, styles); err != nil {
		return err
	}
	if err := writeSummarySheet(f, doc, styles); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

type excelStyles struct {
	header, currency, date, bold int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	currencyFmt := "#,##0.00"
	dateFmt := "dd-mm-yyyy hh:mm"

	var s excelStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, fmt.Errorf("creating header style: %w", err)
	}
	if s.currency, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &currencyFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, fmt.Errorf("creating currency style: %w", err)
	}
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return s, fmt.Errorf("creating date style: %w", err)
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("creating bold style: %w", err)
	}
	return s, nil
}

func writeTransactionSheet(f *excelize.File, doc Document, st excelStyles) error {
	sh := sheetTransactions
	if err := f.SetSheetRow(sh, "A1", &Columns); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	if err := f.SetCellStyle(sh, "A1", "F1", st.header); err != nil {
		return fmt.Errorf("styling header row: %w", err)
	}

	for i, txn := range doc.Transactions {
		row := i + 2
		values := []any{
			txn.ReferenceID,
			txn.Timestamp,
			txn.Description,
			txn.WithdrawalAmount().InexactFloat64(),
			txn.CreditAmount().InexactFloat64(),
			txn.RunningBalance.InexactFloat64(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sh, cell, v); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
		if err := f.SetCellStyle(sh, cellName(2, row), cellName(2, row), st.date); err != nil {
			return fmt.Errorf("styling row %d: %w", row, err)
		}
		if err := f.SetCellStyle(sh, cellName(4, row), cellName(6, row), st.currency); err != nil {
			return fmt.Errorf("styling row %d: %w", row, err)
		}
	}

	widths := []float64{14, 18, 48, 14, 14, 14}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sh, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}
	if err := f.SetPanes(sh, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, doc Document, st excelStyles) error {
	sh := sheetSummary
	if _, err := f.NewSheet(sh); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}

	lines := []string{doc.Title}
	lines = append(lines, CriteriaLines(doc.Criteria)...)
	lines = append(lines, "Generated: "+doc.Generated.Format(DateTimeLayout), "")
	lines = append(lines, StatsLines(doc.Stats)...)

	for i, line := range lines {
		if err := f.SetCellStr(sh, cellName(1, i+1), line); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	if err := f.SetCellStyle(sh, "A1", "A1", st.bold); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	return f.SetColWidth(sh, "A", "A", 60)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
