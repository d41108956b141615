package extract

// Extractor runs the full pipeline: locate, split and build for each section
// kind, then merge. An Extractor is immutable after construction and safe to
// share between goroutines.
type Extractor struct {
	sentinel      string
	configuration *Schema
	status        *Schema
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSentinel overrides the value written for fields that could not be matched.
func WithSentinel(s string) Option {
	return func(e *Extractor) {
		if s != "" {
			e.sentinel = s
		}
	}
}

// WithConfigurationMarker overrides the marker that locates the configuration section.
func WithConfigurationMarker(marker string) Option {
	return func(e *Extractor) {
		if marker != "" {
			e.configuration.Marker = marker
		}
	}
}

// WithStatusMarker overrides the marker that locates the interface status section.
func WithStatusMarker(marker string) Option {
	return func(e *Extractor) {
		if marker != "" {
			e.status.Marker = marker
		}
	}
}

// WithExtraFields appends fields to the schema of the given section kind.
func WithExtraFields(kind SectionKind, fields ...FieldSpec) Option {
	return func(e *Extractor) {
		s := e.schema(kind)
		if s == nil {
			return
		}
		s.Fields = append(s.Fields, fields...)
	}
}

// New creates an Extractor with the built-in schemas.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		sentinel:      NotCaptured,
		configuration: ConfigurationSchema(),
		status:        StatusSchema(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sentinel returns the value used for fields that could not be matched.
func (e *Extractor) Sentinel() string {
	return e.sentinel
}

// Schema returns the schema for kind, or nil for an unknown kind.
func (e *Extractor) Schema(kind SectionKind) *Schema {
	return e.schema(kind)
}

func (e *Extractor) schema(kind SectionKind) *Schema {
	switch kind {
	case SectionConfiguration:
		return e.configuration
	case SectionStatus:
		return e.status
	default:
		return nil
	}
}

// Configuration extracts the configuration dataset from transcript.
func (e *Extractor) Configuration(transcript string) *Dataset {
	return BuildDataset(e.configuration, transcript, e.sentinel)
}

// Status extracts the interface status dataset from transcript.
func (e *Extractor) Status(transcript string) *Dataset {
	return BuildDataset(e.status, transcript, e.sentinel)
}

// Extract runs both section extractions and merges them.
func (e *Extractor) Extract(transcript string) *Result {
	cfg := e.Configuration(transcript)
	st := e.Status(transcript)
	return &Result{
		Configuration: cfg,
		Status:        st,
		Table:         Merge(cfg, st),
	}
}

// Columns returns the full merged column set: configuration columns followed
// by status columns, with the shared name column once.
func (e *Extractor) Columns() []Column {
	return joinColumns(e.configuration.Columns(), e.status.Columns())
}

// FillUnset returns a copy of t that defines every column in columns and
// holds sentinel in each cell that was unset. Columns already on t but not in
// columns are kept after them.
func FillUnset(t *Table, columns []Column, sentinel string) *Table {
	out := &Table{
		Columns: joinColumns(columns, t.Columns),
		Rows:    make([]Row, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		row := make(Row, len(out.Columns))
		for _, c := range out.Columns {
			if v, ok := r[c.Key]; ok {
				row[c.Key] = v
			} else {
				row[c.Key] = sentinel
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
