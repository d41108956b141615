package extract

import (
	"slices"
	"strings"
)

// Merge outer-joins two datasets on the interface name.
//
// Both empty yields a table with no rows and no columns. When exactly one is
// empty the other is returned as a table with only its own columns. Otherwise
// every distinct name from either side produces one row; cells from the side
// that lacks the name are left unset. Joined rows are sorted by name in byte
// order; a single-dataset table keeps its record order. When a name repeats
// within one dataset the later record wins.
func Merge(a, b *Dataset) *Table {
	switch {
	case a.Empty() && b.Empty():
		return &Table{Columns: []Column{}, Rows: []Row{}}
	case b.Empty():
		return datasetTable(a)
	case a.Empty():
		return datasetTable(b)
	}

	table := &Table{Columns: joinColumns(a.Columns, b.Columns)}

	index := make(map[string]int)
	for _, ds := range []*Dataset{a, b} {
		for _, rec := range ds.Records {
			name := rec.Name()
			i, ok := index[name]
			if !ok {
				i = len(table.Rows)
				index[name] = i
				table.Rows = append(table.Rows, Row{KeyName: name})
			}
			for k, v := range rec {
				table.Rows[i][k] = v
			}
		}
	}

	slices.SortStableFunc(table.Rows, func(x, y Row) int {
		return strings.Compare(x[KeyName], y[KeyName])
	})
	return table
}

func datasetTable(ds *Dataset) *Table {
	t := &Table{
		Columns: append([]Column(nil), ds.Columns...),
		Rows:    make([]Row, 0, len(ds.Records)),
	}
	for _, rec := range ds.Records {
		row := make(Row, len(rec))
		for k, v := range rec {
			row[k] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// joinColumns returns a's columns followed by b's, without repeating a key.
func joinColumns(a, b []Column) []Column {
	seen := make(map[string]bool, len(a)+len(b))
	cols := make([]Column, 0, len(a)+len(b))
	for _, set := range [][]Column{a, b} {
		for _, c := range set {
			if seen[c.Key] {
				continue
			}
			seen[c.Key] = true
			cols = append(cols, c)
		}
	}
	return cols
}
