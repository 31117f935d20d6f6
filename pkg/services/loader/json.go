package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/de-tools/tally/pkg/models/domain"
)

// ReadJSON reads an array of flat objects. The column set comes from the
// first object (sorted for a stable order); later objects may omit columns,
// which become nulls, but may not introduce new ones.
func ReadJSON(r io.Reader) (domain.Table, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return domain.Table{}, fmt.Errorf("decode json rows: %w", err)
	}
	if len(records) == 0 {
		return domain.Table{}, nil
	}

	columns := make([]string, 0, len(records[0]))
	for column := range records[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	known := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		known[column] = struct{}{}
	}

	table := domain.Table{Columns: columns}
	for i, record := range records {
		for column := range record {
			if _, ok := known[column]; !ok {
				return domain.Table{}, fmt.Errorf("row %d has column %q not present in the first row", i, column)
			}
		}

		row := make(domain.Row, len(columns))
		for _, column := range columns {
			value, err := toValue(record[column])
			if err != nil {
				return domain.Table{}, fmt.Errorf("row %d, column %q: %w", i, column, err)
			}
			row[column] = value
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ToTable converts already-decoded rows, as received on the HTTP surface,
// into a domain table using the caller-declared column order.
func ToTable(columns []string, rows []map[string]any) (domain.Table, error) {
	if err := checkHeader(columns); err != nil {
		return domain.Table{}, err
	}

	table := domain.Table{Columns: columns}
	for i, record := range rows {
		row := make(domain.Row, len(columns))
		for _, column := range columns {
			value, err := toValue(record[column])
			if err != nil {
				return domain.Table{}, fmt.Errorf("row %d, column %q: %w", i, column, err)
			}
			row[column] = value
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func toValue(raw any) (domain.Value, error) {
	switch v := raw.(type) {
	case nil:
		return domain.Null(), nil
	case float64:
		return domain.Number(v), nil
	case string:
		return parseCell(v), nil
	case bool:
		return domain.Value{}, fmt.Errorf("boolean cells are not supported")
	default:
		return domain.Value{}, fmt.Errorf("unsupported cell type %T", raw)
	}
}
