package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

var pdfColumnWidths = []float64{35, 38, 104, 33, 33, 34}

const (
	pdfRowHeight = 6.0
	pdfMargin    = 10.0
)

// PDFRenderer lays the statement out as a landscape A4 table.
type PDFRenderer struct{}

func (PDFRenderer) Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreationDate(doc.Generated)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			pdfTableHeader(pdf)
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range CriteriaLines(doc.Criteria) {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Generated: "+doc.Generated.Format(DateTimeLayout), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdfTableHeader(pdf)
	pdf.SetFont("Helvetica", "", 8)
	for _, txn := range doc.Transactions {
		cells := []string{
			txn.ReferenceID,
			txn.Timestamp.Format(DateTimeLayout),
			tr(fitText(pdf, txn.Description, pdfColumnWidths[2]-2)),
			formatOptional(txn.Withdrawal),
			formatOptional(txn.Credit),
			FormatAmount(txn.RunningBalance),
		}
		for i, c := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	for _, line := range StatsLines(doc.Stats) {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}

func pdfTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(211, 211, 211)
	for i, name := range Columns {
		pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight+1, name, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
}

// fitText truncates s with an ellipsis so that it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
