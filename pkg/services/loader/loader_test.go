package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/de-tools/tally/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	t.Run("numbers, strings and blanks", func(t *testing.T) {
		in := strings.NewReader("Region,Sales,Target\nnorth,120.5,\nsouth,80,90\n")

		table, err := ReadCSV(in)

		require.NoError(t, err)
		assert.Equal(t, []string{"Region", "Sales", "Target"}, table.Columns)
		require.Len(t, table.Rows, 2)

		assert.Equal(t, domain.String("north"), table.Rows[0]["Region"])
		assert.Equal(t, domain.Number(120.5), table.Rows[0]["Sales"])
		assert.True(t, table.Rows[0]["Target"].IsNull())
		assert.Equal(t, domain.Number(90), table.Rows[1]["Target"])
	})

	t.Run("duplicate header column", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("A,A\n1,2\n"))
		assert.ErrorContains(t, err, "duplicate column")
	})

	t.Run("ragged record", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("A,B\n1\n"))
		assert.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		assert.ErrorContains(t, err, "no header row")
	})
}

func TestReadXLSX(t *testing.T) {
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	require.NoError(t, workbook.SetSheetRow(sheet, "A1", &[]any{"A", "B", "Total"}))
	require.NoError(t, workbook.SetSheetRow(sheet, "A2", &[]any{10, 20, 30}))
	require.NoError(t, workbook.SetSheetRow(sheet, "A3", &[]any{5, "n/a"}))

	var buf bytes.Buffer
	require.NoError(t, workbook.Write(&buf))

	table, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "Total"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, domain.Number(10), table.Rows[0]["A"])
	assert.Equal(t, domain.String("n/a"), table.Rows[1]["B"])
	// Short sheet rows are padded with nulls.
	assert.True(t, table.Rows[1]["Total"].IsNull())
}

func TestReadJSON(t *testing.T) {
	t.Run("columns from first row, missing keys become null", func(t *testing.T) {
		in := strings.NewReader(`[{"A": 1, "B": 2}, {"A": 3}]`)

		table, err := ReadJSON(in)

		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, table.Columns)
		assert.Equal(t, domain.Number(2), table.Rows[0]["B"])
		assert.True(t, table.Rows[1]["B"].IsNull())
	})

	t.Run("unknown column in a later row", func(t *testing.T) {
		_, err := ReadJSON(strings.NewReader(`[{"A": 1}, {"A": 2, "C": 3}]`))
		assert.ErrorContains(t, err, `column "C"`)
	})

	t.Run("unsupported cell type", func(t *testing.T) {
		_, err := ReadJSON(strings.NewReader(`[{"A": true}]`))
		assert.Error(t, err)
	})
}

func TestToTable(t *testing.T) {
	table, err := ToTable(
		[]string{"A", "Total"},
		[]map[string]any{{"A": 1.0, "Total": 1.0}, {"A": nil, "Total": 2.0}},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Total"}, table.Columns)
	assert.True(t, table.Rows[1]["A"].IsNull())
}

func TestDetectFormat(t *testing.T) {
	for path, want := range map[string]Format{
		"data.csv":     FormatCSV,
		"Report.XLSX":  FormatXLSX,
		"rows.json":    FormatJSON,
		"nested/t.CSV": FormatCSV,
	} {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectFormat("table.parquet")
	assert.ErrorContains(t, err, "unsupported table format")
}
