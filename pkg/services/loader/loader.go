// Package loader turns tabular files into domain tables. The reconciliation
// engine never reads files itself; these readers are its collaborators.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/de-tools/tally/pkg/models/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Options control how a file is read. Sheet only applies to XLSX input; an
// empty value selects the workbook's first sheet.
type Options struct {
	Sheet string
}

// DetectFormat maps a file extension to a supported format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}

// Load reads the file at path into a table, picking the reader from the file
// extension.
func Load(path string, opts Options) (domain.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return domain.Table{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open table file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		return ReadCSV(f)
	case FormatXLSX:
		return ReadXLSX(f, opts.Sheet)
	case FormatJSON:
		return ReadJSON(f)
	}
	return domain.Table{}, fmt.Errorf("unsupported table format %q", format)
}

// parseCell converts raw text into a cell value. Blank cells become null,
// anything that parses as a float becomes a number, the rest stays a string.
func parseCell(raw string) domain.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Null()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return domain.Number(n)
	}
	return domain.String(trimmed)
}
