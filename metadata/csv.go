package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV builds a Table from CSV data whose first record is the
// header. Every field is treated as a categorical string value.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metadata csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metadata csv is empty")
	}

	header := records[0]
	rows := records[1:]

	table := NewTable(len(rows))
	for c, name := range header {
		values := make([]string, len(rows))
		for i, rec := range rows {
			values[i] = rec[c]
		}
		if err := table.AddColumn(name, values); err != nil {
			return nil, err
		}
	}

	return table, nil
}
