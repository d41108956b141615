package extract

// ColumnStats counts how the cells of one column were filled.
type ColumnStats struct {
	Column   Column `json:"column"`
	Captured int    `json:"captured"`
	Missed   int    `json:"missed"`
	Unset    int    `json:"unset"`
}

// Rate returns the share of rows whose cell was captured, or 0 for no rows.
func (s ColumnStats) Rate() float64 {
	total := s.Captured + s.Missed + s.Unset
	if total == 0 {
		return 0
	}
	return float64(s.Captured) / float64(total)
}

// CaptureStats reports, per column, how many cells hold a value, how many
// hold sentinel and how many are unset.
func CaptureStats(t *Table, sentinel string) []ColumnStats {
	stats := make([]ColumnStats, len(t.Columns))
	for i, c := range t.Columns {
		stats[i].Column = c
		for _, r := range t.Rows {
			v, ok := r.Get(c.Key)
			switch {
			case !ok:
				stats[i].Unset++
			case v == sentinel:
				stats[i].Missed++
			default:
				stats[i].Captured++
			}
		}
	}
	return stats
}

// OneSided returns the names present in only one of the two datasets, in
// dataset order. Both results are nil unless both datasets have records.
func OneSided(a, b *Dataset) (onlyA, onlyB []string) {
	if a.Empty() || b.Empty() {
		return nil, nil
	}
	inA := make(map[string]bool, len(a.Records))
	for _, r := range a.Records {
		inA[r.Name()] = true
	}
	inB := make(map[string]bool, len(b.Records))
	for _, r := range b.Records {
		inB[r.Name()] = true
	}
	for _, r := range a.Records {
		if !inB[r.Name()] {
			onlyA = append(onlyA, r.Name())
		}
	}
	for _, r := range b.Records {
		if !inA[r.Name()] {
			onlyB = append(onlyB, r.Name())
		}
	}
	return onlyA, onlyB
}
