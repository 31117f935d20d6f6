package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/tally/pkg/models/api"
	"github.com/de-tools/tally/pkg/models/domain"
	"github.com/jedib0t/go-pretty/v6/table"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Reporter renders reconciliation reports to the terminal.
type Reporter struct {
	writer io.Writer
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer, format: FormatTable}
}

func (c *Reporter) SetFormat(format Format) error {
	switch format {
	case FormatTable, FormatJSON:
		c.format = format
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func (c *Reporter) Handle(report domain.Report) error {
	if c.format == FormatJSON {
		encoder := json.NewEncoder(c.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(api.ReportFromDomain(report))
	}
	return c.renderTable(report)
}

func (c *Reporter) renderTable(report domain.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(c.writer)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Relationship", "Row", "Computed", "Stated", "Diff", "Status", "Note"})

	for _, f := range report.Findings {
		t.AppendRow(table.Row{
			f.RelationshipID,
			f.RowIndex,
			formatValue(f.Computed),
			formatValue(f.Stated),
			formatValue(f.Diff),
			f.Classification.String(),
			f.Note,
		})
	}
	t.Render()

	for _, e := range report.SchemaErrors {
		fmt.Fprintf(c.writer, "schema error: relationship %q: %s\n", e.RelationshipID, e.Detail)
	}

	_, err := fmt.Fprintf(c.writer, "\nOverall status: %s\n", report.Overall)
	return err
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}
