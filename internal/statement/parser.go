// Package statement reads bank statement files into transactions and imports
// them into the transaction store.
package statement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cleared-dev/estatement/internal/model"
)

// Parser converts a statement file into transactions. Running balances are
// left zero; they are recomputed after import.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered formats in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// DefaultRegistry returns a registry with the CSV and OFX parsers.
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{Logger: logger})
	r.Register(&OFXParser{Logger: logger})
	return r
}

const (
	FormatCSV = "csv"
	FormatOFX = "ofx"
)

// MaxUploadBytes is the default upload size limit.
const MaxUploadBytes = 10 << 20

var (
	ErrUnsupportedFile = errors.New("unsupported statement file")
	ErrEmptyFile       = errors.New("statement file is empty")
	ErrFileTooLarge    = errors.New("statement file too large")
)

// DetectFormat maps a file name to a parser format by extension.
func DetectFormat(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".ofx", ".qfx":
		return FormatOFX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
}

// ValidateUpload checks an uploaded file before it is parsed. Only the listed
// formats are accepted; with none listed, only CSV is.
func ValidateUpload(name string, size, maxBytes int64, formats ...string) error {
	if len(formats) == 0 {
		formats = []string{FormatCSV}
	}
	format, err := DetectFormat(name)
	if err != nil || !slices.Contains(formats, format) {
		return fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedFile, name, strings.Join(formats, ", "))
	}
	if size == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, name, size, maxBytes)
	}
	return nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
