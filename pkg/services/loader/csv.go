package loader

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/de-tools/tally/pkg/models/domain"
)

// ReadCSV reads a comma-separated table whose first record is the header.
// The csv reader already rejects ragged records, which keeps the table
// rectangular.
func ReadCSV(r io.Reader) (domain.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return domain.Table{}, fmt.Errorf("csv input has no header row")
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return domain.Table{}, err
	}

	table := domain.Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read csv record: %w", err)
		}

		row := make(domain.Row, len(header))
		for i, column := range header {
			row[column] = parseCell(record[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, column := range header {
		if column == "" {
			return fmt.Errorf("header contains an empty column name")
		}
		if _, dup := seen[column]; dup {
			return fmt.Errorf("duplicate column %q in header", column)
		}
		seen[column] = struct{}{}
	}
	return nil
}
