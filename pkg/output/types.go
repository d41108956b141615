// Package output renders extracted interface tables.
package output

import (
	"time"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// Report is the complete extraction output.
type Report struct {
	// Metadata provides context about the extraction.
	Metadata Metadata `json:"metadata"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Table is the merged interface table.
	Table *extract.Table `json:"table"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Rows is the number of interfaces in the merged table.
	Rows int `json:"rows"`

	// ConfigurationRecords and StatusRecords count the records of each side
	// before the merge.
	ConfigurationRecords int `json:"configuration_records"`
	StatusRecords        int `json:"status_records"`

	// Columns reports how each column was filled.
	Columns []extract.ColumnStats `json:"columns"`
}

// Metadata provides context about the extraction run.
type Metadata struct {
	// Source is the transcript path, or a label such as "upload".
	Source string `json:"source"`

	// Encoding is the detected transcript encoding.
	Encoding string `json:"encoding,omitempty"`

	// Sections lists the section kinds whose marker was found.
	Sections []extract.SectionKind `json:"sections"`

	// ExtractedAt is when the extraction finished.
	ExtractedAt time.Time `json:"extracted_at"`

	// Duration is how long the extraction took.
	Duration time.Duration `json:"duration"`
}

// NewReport builds a Report from an extraction result. The table is taken
// from result as is; apply extract.FillUnset beforehand when wanted.
func NewReport(result *extract.Result, sentinel string, meta Metadata) *Report {
	table := result.Table
	if table == nil {
		table = &extract.Table{}
	}

	meta.Sections = nil
	if result.Configuration != nil && result.Configuration.Found {
		meta.Sections = append(meta.Sections, extract.SectionConfiguration)
	}
	if result.Status != nil && result.Status.Found {
		meta.Sections = append(meta.Sections, extract.SectionStatus)
	}

	report := &Report{
		Metadata: meta,
		Table:    table,
		Summary: Summary{
			Rows:    len(table.Rows),
			Columns: extract.CaptureStats(table, sentinel),
		},
	}
	if result.Configuration != nil {
		report.Summary.ConfigurationRecords = len(result.Configuration.Records)
	}
	if result.Status != nil {
		report.Summary.StatusRecords = len(result.Status.Records)
	}
	return report
}

// HasRows returns true if at least one interface was extracted.
func (r *Report) HasRows() bool {
	return r.Summary.Rows > 0
}
