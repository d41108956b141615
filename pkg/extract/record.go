package extract

// BuildRecords applies the schema's fields to each chunk and returns one
// record per chunk, in chunk order. Fields that cannot be matched hold sentinel.
func BuildRecords(schema *Schema, chunks []string, sentinel string) []Record {
	records := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		records = append(records, BuildRecord(schema, chunk, sentinel))
	}
	return records
}

// BuildRecord extracts every field of schema from a single chunk.
func BuildRecord(schema *Schema, chunk, sentinel string) Record {
	rec := make(Record, len(schema.Fields))
	for _, f := range schema.Fields {
		rec[f.Column.Key] = Match(f.Patterns, chunk, sentinel)
	}
	return rec
}

// BuildDataset locates the schema's section in transcript and builds its
// records. A missing section yields an empty dataset with the full column set.
func BuildDataset(schema *Schema, transcript, sentinel string) *Dataset {
	ds := &Dataset{
		Kind:    schema.Kind,
		Columns: schema.Columns(),
		Records: []Record{},
	}

	section, ok := Locate(transcript, schema.Marker)
	if !ok {
		return ds
	}
	ds.Found = true
	ds.Records = BuildRecords(schema, schema.Split(section), sentinel)
	return ds
}
