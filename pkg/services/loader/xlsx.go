package loader

import (
	"fmt"
	"io"

	"github.com/de-tools/tally/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one sheet of a workbook, first row as header. An empty sheet
// name selects the first sheet. Trailing cells excelize drops from short rows
// are filled in as nulls.
func ReadXLSX(r io.Reader, sheet string) (domain.Table, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	if sheet == "" {
		sheet = file.GetSheetName(0)
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return domain.Table{}, fmt.Errorf("sheet %q has no header row", sheet)
	}

	header := rows[0]
	if err := checkHeader(header); err != nil {
		return domain.Table{}, err
	}

	table := domain.Table{Columns: header}
	for _, record := range rows[1:] {
		row := make(domain.Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = parseCell(record[i])
			} else {
				row[column] = domain.Null()
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
