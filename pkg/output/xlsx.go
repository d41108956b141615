package output

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheetName = "Sheet1"
	columnWidth      = 18
)

// XLSXFormatter writes the table as a single-sheet workbook with a bold,
// frozen header row.
type XLSXFormatter struct {
	opts FormatOptions
}

// NewXLSXFormatter creates a new xlsx formatter with the given options.
func NewXLSXFormatter(opts FormatOptions) *XLSXFormatter {
	if opts.Sheet == "" {
		opts.Sheet = DefaultSheet
	}
	return &XLSXFormatter{opts: opts}
}

// Name returns the format name.
func (f *XLSXFormatter) Name() string {
	return "xlsx"
}

// Format renders the table as an xlsx workbook. The header row is written
// even when the table has no rows.
func (f *XLSXFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	book := excelize.NewFile()
	defer book.Close()

	sheet := f.opts.Sheet
	if err := book.SetSheetName(defaultSheetName, sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	cols := report.Table.Columns
	if len(cols) > 0 {
		if err := writeHeader(book, sheet, f.opts.headerRow(cols)); err != nil {
			return err
		}
	}

	for i, r := range report.Table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := setRow(book, sheet, i+2, cells(cols, r)); err != nil {
			return err
		}
	}

	if _, err := book.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHeader(book *excelize.File, sheet string, headers []string) error {
	if err := setRow(book, sheet, 1, headers); err != nil {
		return err
	}

	style, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := book.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := book.SetColWidth(sheet, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	return book.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(book *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := book.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
