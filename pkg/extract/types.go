// Package extract pulls per-interface records out of device display transcripts.
//
// The engine is heuristic: it locates a command's output section, splits it
// into one chunk per interface and applies ordered regex alternatives to each
// chunk. Nothing in this package returns an error for odd input; fields that
// cannot be matched carry the NotCaptured sentinel instead.
package extract

// NotCaptured is written into a cell when a field's patterns all failed.
const NotCaptured = "未捕获相关数据"

// KeyName is the column key shared by both section kinds and used as join key.
const KeyName = "name"

// SectionKind identifies which display command produced a section.
type SectionKind string

const (
	// SectionConfiguration is the output of "display current-configuration".
	SectionConfiguration SectionKind = "configuration"
	// SectionStatus is the output of "display interface".
	SectionStatus SectionKind = "status"
)

// Default command markers used to locate sections.
const (
	DefaultConfigurationMarker = "display current-configuration"
	DefaultStatusMarker        = "display interface"
)

// Column describes one output column.
type Column struct {
	// Key is the stable identifier used in records and JSON output.
	Key string `json:"key"`

	// Header is the human-readable spreadsheet header.
	Header string `json:"header"`
}

// Record holds one interface's extracted values keyed by column key.
// Every column of the producing schema is present.
type Record map[string]string

// Name returns the record's interface name.
func (r Record) Name() string {
	return r[KeyName]
}

// Dataset is the set of records extracted from one section kind.
type Dataset struct {
	Kind    SectionKind `json:"kind"`
	Columns []Column    `json:"columns"`
	Records []Record    `json:"records"`

	// Found reports whether the section marker was present in the transcript.
	Found bool `json:"found"`
}

// Empty reports whether the dataset has no records.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Records) == 0
}

// Row is one merged table row. A column key missing from the map is unset,
// which is distinct from a cell holding NotCaptured.
type Row map[string]string

// Get returns the cell for key and whether it is set.
func (r Row) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Table is the merged result of both datasets.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColumnKeys returns the keys of the table's columns in order.
func (t *Table) ColumnKeys() []string {
	keys := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		keys[i] = c.Key
	}
	return keys
}

// HasColumn reports whether the table defines a column with the given key.
func (t *Table) HasColumn(key string) bool {
	for _, c := range t.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Result is the output of one extraction pass.
type Result struct {
	Configuration *Dataset `json:"configuration"`
	Status        *Dataset `json:"status"`
	Table         *Table   `json:"table"`
}
