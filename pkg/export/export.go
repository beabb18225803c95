package export

import (
	"fmt"
	"strings"
)

// Format selects an output encoding for tabular exports.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat maps a user supplied format string to a Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatPDF):
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Extension returns the file extension, without a leading dot.
func (f Format) Extension() string {
	return string(f)
}

// Table is ordered tabular content ready for rendering. Every row must
// have the same length as Columns.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}
