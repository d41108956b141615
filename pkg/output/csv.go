package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVFormatter writes the table as comma-separated values with a header row.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format renders the table as CSV. The header row is written even when the
// table has no rows.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	cw := csv.NewWriter(w)
	cols := report.Table.Columns

	if len(cols) > 0 {
		if err := cw.Write(f.opts.headerRow(cols)); err != nil {
			return fmt.Errorf("writing csv header: %w", err)
		}
	}
	for _, r := range report.Table.Rows {
		if err := cw.Write(cells(cols, r)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
