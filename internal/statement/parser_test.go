package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(nil)
	assert.NotNil(t, r.Get("csv"))
	assert.NotNil(t, r.Get("OFX"))
	assert.Nil(t, r.Get("qif"))
	assert.Equal(t, []string{"csv", "ofx"}, r.Formats())

	assert.Panics(t, func() { r.Register(&CSVParser{}) })
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"dec.csv", FormatCSV},
		{"DEC.CSV", FormatCSV},
		{"bank.ofx", FormatOFX},
		{"bank.QFX", FormatOFX},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		assert.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := DetectFormat("statement.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("dec.csv", 1024, MaxUploadBytes))
	assert.NoError(t, ValidateUpload("dec.csv", MaxUploadBytes, MaxUploadBytes))
	assert.NoError(t, ValidateUpload("bank.qfx", 10, 0, FormatCSV, FormatOFX))

	assert.ErrorIs(t, ValidateUpload("bank.ofx", 10, MaxUploadBytes), ErrUnsupportedFile)
	assert.ErrorIs(t, ValidateUpload("notes.txt", 10, MaxUploadBytes), ErrUnsupportedFile)
	assert.ErrorIs(t, ValidateUpload("dec.csv", 0, MaxUploadBytes), ErrEmptyFile)
	assert.ErrorIs(t, ValidateUpload("dec.csv", MaxUploadBytes+1, MaxUploadBytes), ErrFileTooLarge)
}
