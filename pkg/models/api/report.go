package api

import "github.com/de-tools/tally/pkg/models/domain"

// Finding is the wire form of one reconciliation finding. Computed, stated
// and diff are null when the check could not produce a value.
type Finding struct {
	RelationshipID string   `json:"relationship_id"`
	RowIndex       int      `json:"row_index"`
	Computed       *float64 `json:"computed"`
	Stated         *float64 `json:"stated"`
	Diff           *float64 `json:"diff"`
	Classification string   `json:"classification"`
	Note           string   `json:"note,omitempty"`
}

type SchemaError struct {
	RelationshipID string `json:"relationship_id"`
	Detail         string `json:"detail"`
}

type Report struct {
	OverallStatus string         `json:"overall_status"`
	Findings      []Finding      `json:"findings"`
	SchemaErrors  []SchemaError  `json:"schema_errors,omitempty"`
	Summary       map[string]any `json:"summary,omitempty"`
}

// ReportFromDomain flattens a domain report into its wire form.
func ReportFromDomain(r domain.Report) Report {
	out := Report{
		OverallStatus: r.Overall.String(),
		Findings:      make([]Finding, 0, len(r.Findings)),
		Summary:       r.Summary,
	}
	for _, f := range r.Findings {
		out.Findings = append(out.Findings, Finding{
			RelationshipID: f.RelationshipID,
			RowIndex:       f.RowIndex,
			Computed:       f.Computed,
			Stated:         f.Stated,
			Diff:           f.Diff,
			Classification: f.Classification.String(),
			Note:           f.Note,
		})
	}
	for _, e := range r.SchemaErrors {
		out.SchemaErrors = append(out.SchemaErrors, SchemaError{
			RelationshipID: e.RelationshipID,
			Detail:         e.Detail,
		})
	}
	return out
}
