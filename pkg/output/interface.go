package output

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// Formatter renders extraction reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, csv, xlsx).
	Name() string
}

// Header styles.
const (
	HeadersLabel = "label"
	HeadersKey   = "key"
)

// DefaultSheet is the worksheet name used when none is configured.
const DefaultSheet = "interfaces"

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Headers selects "label" (human-readable) or "key" column headers.
	Headers string

	// Sheet is the xlsx worksheet name.
	Sheet string

	// Quiet enables minimal summary-only output (text and json).
	Quiet bool
}

func (o FormatOptions) header(c extract.Column) string {
	if o.Headers == HeadersKey || c.Header == "" {
		return c.Key
	}
	return c.Header
}

func (o FormatOptions) headerRow(cols []extract.Column) []string {
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = o.header(c)
	}
	return row
}

// cells returns the row's values in column order. Unset cells are empty.
func cells(cols []extract.Column, r extract.Row) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c.Key]
	}
	return out
}

// New returns the formatter for the named format.
func New(format string, opts FormatOptions) (Formatter, error) {
	switch strings.ToLower(format) {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "csv":
		return NewCSVFormatter(opts), nil
	case "xlsx":
		return NewXLSXFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use xlsx, csv, json, or text)", format)
	}
}

// FormatForPath infers the output format from a file extension. Stdout ("-"
// or "") and unknown extensions yield def.
func FormatForPath(path, def string) string {
	if path == "" || path == "-" {
		return def
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "xlsx"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".txt":
		return "text"
	default:
		return def
	}
}
