// Package uploadlog records statement uploads in a CSV history file.
package uploadlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of an upload.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Entry is one row in the upload history.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"uploadedAt"`
	FileName    string    `json:"fileName"`
	Size        int64     `json:"size"`
	Format      string    `json:"format"`
	Status      Status    `json:"status"`
	RecordCount int       `json:"recordCount"`
	Error       string    `json:"error,omitempty"`
}

// NewID returns a fresh upload id.
func NewID() string {
	return uuid.NewString()
}

// Header is the CSV header for uploads.csv.
const Header = "id,timestamp,file_name,size,format,status,record_count,error"

// FileName is the history file inside the data directory.
const FileName = "uploads.csv"

const (
	numFields      = 8
	colID          = 0
	colTimestamp   = 1
	colFileName    = 2
	colSize        = 3
	colFormat      = 4
	colStatus      = 5
	colRecordCount = 6
	colError       = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colFileName] = e.FileName
	row[colSize] = strconv.FormatInt(e.Size, 10)
	row[colFormat] = e.Format
	row[colStatus] = string(e.Status)
	row[colRecordCount] = strconv.Itoa(e.RecordCount)
	row[colError] = e.Error
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	size, err := strconv.ParseInt(record[colSize], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing size %q: %w", record[colSize], err)
	}
	count, err := strconv.Atoi(record[colRecordCount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing record_count %q: %w", record[colRecordCount], err)
	}

	return Entry{
		ID:          record[colID],
		Timestamp:   ts,
		FileName:    record[colFileName],
		Size:        size,
		Format:      record[colFormat],
		Status:      Status(record[colStatus]),
		RecordCount: count,
		Error:       record[colError],
	}, nil
}

// Log is the upload history of one data directory. It is safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
}

// New returns the log stored at <dir>/uploads.csv.
func New(dir string) *Log {
	return &Log{path: filepath.Join(dir, FileName)}
}

// Path returns the history file path.
func (l *Log) Path() string { return l.path }

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating upload log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening upload log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries, oldest first. A missing file is an empty history.
func (l *Log) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening upload log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Find returns the entry with id. ok is false when no upload has that id.
func (l *Log) Find(id string) (e Entry, ok bool, err error) {
	entries, err := l.Read()
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading upload log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
