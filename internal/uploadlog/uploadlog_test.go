package uploadlog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		ID:          "5b0c1a9e-3f0e-4b8e-9a55-1f2d3c4b5a69",
		Timestamp:   testTime,
		FileName:    "statement-dec.csv",
		Size:        2048,
		Format:      "csv",
		Status:      StatusCompleted,
		RecordCount: 5,
	}
}

func TestAppend_NewFile(t *testing.T) {
	l := New(t.TempDir())
	require.NoError(t, l.Append(testEntry()))

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	l := New(t.TempDir())
	require.NoError(t, l.Append(testEntry()))

	failed := testEntry()
	failed.ID = NewID()
	failed.Status = StatusFailed
	failed.RecordCount = 0
	failed.Error = "parsing OFX file: unexpected EOF, line 3"
	require.NoError(t, l.Append(failed))

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, StatusCompleted, entries[0].Status)
	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Equal(t, failed.Error, entries[1].Error)
}

func TestAppend_Concurrent(t *testing.T) {
	l := New(t.TempDir())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := testEntry()
			e.ID = NewID()
			assert.NoError(t, l.Append(e))
		}()
	}
	wg.Wait()

	entries, err := l.Read()
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := New(t.TempDir()).Read()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(Header+"\n"), 0o644))

	entries, err := New(dir).Read()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	row := MarshalEntry(testEntry())

	_, err := UnmarshalEntry(row[:3])
	assert.ErrorContains(t, err, "expected 8 fields")

	bad := append([]string(nil), row...)
	bad[colSize] = "big"
	_, err = UnmarshalEntry(bad)
	assert.ErrorContains(t, err, "parsing size")
}

func TestNewID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}

func TestFind(t *testing.T) {
	l := New(t.TempDir())

	_, ok, err := l.Find("anything")
	require.NoError(t, err)
	assert.False(t, ok)

	failed := testEntry()
	failed.ID = NewID()
	failed.Status = StatusFailed
	failed.Error = "row 3: bad date"
	require.NoError(t, l.Append(testEntry(), failed))

	got, ok, err := l.Find(failed.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, failed, got)

	_, ok, err = l.Find("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
