// Package export renders a filtered statement as a PDF or Excel document.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format selects the document type of an export.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// ErrUnsupportedFormat is returned for any format other than pdf or excel.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the rendered document.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// Filename is the default name of an export produced on day.
func Filename(f Format, day time.Time) string {
	return fmt.Sprintf("transactions-export-%s.%s", day.Format("2006-01-02"), f.Extension())
}

// Payload is a rendered export. Callers treat Data as opaque.
type Payload struct {
	Filename    string
	ContentType string
	Data        []byte
}
