package recon

import (
	"fmt"
	"math"

	"github.com/de-tools/tally/pkg/models/domain"
)

// Settings contains the configurable thresholds for a reconciliation run
type Settings struct {
	// Tolerance is the maximum absolute difference still classified as PASS (default: 0.01)
	Tolerance float64
	// YellowBandFactor opens a YELLOW band above the tolerance: differences in
	// (Tolerance, Tolerance*YellowBandFactor] are YELLOW, anything above is RED.
	// The default of 1 collapses the band, so any difference over the
	// tolerance is RED (default: 1)
	YellowBandFactor float64
}

// DefaultSettings returns the default thresholds for reconciliation runs
func DefaultSettings() Settings {
	return Settings{
		Tolerance:        0.01,
		YellowBandFactor: 1,
	}
}

// Evaluate checks every declared relationship against the table and produces a
// report with one finding per (relationship, row) pair plus an overall status
// rollup. It is a pure function: identical inputs always produce identical
// reports, and findings are emitted in (relationship order, row order).
//
// A relationship referencing a column the table does not have is recorded as a
// schema error and skipped; the remaining relationships are still evaluated.
// An empty table aborts the whole call with domain.ErrEmptyTable.
func Evaluate(table domain.Table, relationships []domain.Relationship, settings Settings) (domain.Report, error) {
	if settings.Tolerance < 0 {
		return domain.Report{}, fmt.Errorf("tolerance must be non-negative, got %v", settings.Tolerance)
	}
	if settings.YellowBandFactor < 1 {
		settings.YellowBandFactor = 1
	}
	if len(table.Rows) == 0 {
		return domain.Report{}, domain.ErrEmptyTable
	}

	report := domain.Report{
		Findings:     []domain.Finding{},
		SchemaErrors: []domain.SchemaError{},
		Summary:      map[string]any{},
	}

	for _, rel := range relationships {
		if schemaErr := validate(table, rel); schemaErr != nil {
			report.SchemaErrors = append(report.SchemaErrors, *schemaErr)
			continue
		}

		var findings []domain.Finding
		switch rel.Kind {
		case domain.Additive:
			findings = evaluateAdditive(table, rel, settings)
		case domain.Derived:
			findings = evaluateDerived(table, rel, settings)
		case domain.RowTotal:
			findings = evaluateRowTotal(table, rel, settings)
		}
		report.Findings = append(report.Findings, findings...)
	}

	report.Overall = rollup(report.Findings)
	updateSummary(&report, table, relationships)

	return report, nil
}

// validate checks a relationship's declaration against the table schema.
func validate(table domain.Table, rel domain.Relationship) *domain.SchemaError {
	switch rel.Kind {
	case domain.Additive:
		if rel.Target == "" || len(rel.Sources) == 0 {
			return &domain.SchemaError{RelationshipID: rel.ID, Detail: "additive relationship needs a target and at least one source column"}
		}
	case domain.Derived:
		if rel.Op != domain.OpSubtract && rel.Op != domain.OpDivide {
			return &domain.SchemaError{RelationshipID: rel.ID, Detail: fmt.Sprintf("unknown operator %q", rel.Op)}
		}
		if rel.Target == "" || rel.Left == "" || rel.Right == "" {
			return &domain.SchemaError{RelationshipID: rel.ID, Detail: "derived relationship needs target, left and right columns"}
		}
	case domain.RowTotal:
		if rel.Target == "" {
			return &domain.SchemaError{RelationshipID: rel.ID, Detail: "row_total relationship needs a target column"}
		}
		if rel.SummaryRow != nil && (*rel.SummaryRow < 0 || *rel.SummaryRow >= len(table.Rows)) {
			return &domain.SchemaError{RelationshipID: rel.ID, Detail: fmt.Sprintf("summary row %d out of range", *rel.SummaryRow)}
		}
	default:
		return &domain.SchemaError{RelationshipID: rel.ID, Detail: fmt.Sprintf("unknown relationship kind %q", rel.Kind)}
	}

	for _, column := range rel.Referenced() {
		if !table.HasColumn(column) {
			return &domain.SchemaError{RelationshipID: rel.ID, Detail: fmt.Sprintf("column %q not present in table", column)}
		}
	}
	return nil
}

func evaluateAdditive(table domain.Table, rel domain.Relationship, settings Settings) []domain.Finding {
	var findings []domain.Finding
	for i, row := range table.Rows {
		values, offending, ok := numbers(row, rel.Referenced())
		if !ok {
			findings = append(findings, incomplete(rel.ID, i, offending))
			continue
		}

		stated := values[0]
		computed := 0.0
		for _, v := range values[1:] {
			computed += v
		}
		findings = append(findings, compare(rel.ID, i, computed, stated, settings))
	}
	return findings
}

func evaluateDerived(table domain.Table, rel domain.Relationship, settings Settings) []domain.Finding {
	var findings []domain.Finding
	for i, row := range table.Rows {
		operands, offending, ok := numbers(row, []string{rel.Left, rel.Right})
		if !ok {
			findings = append(findings, incomplete(rel.ID, i, offending))
			continue
		}
		left, right := operands[0], operands[1]

		// A zero divisor is a RED finding in its own right, even when the
		// target cell is also missing.
		if rel.Op == domain.OpDivide && right == 0 {
			f := domain.Finding{
				RelationshipID: rel.ID,
				RowIndex:       i,
				Classification: domain.ClassRed,
				Note:           fmt.Sprintf("division by zero: column %q is 0", rel.Right),
			}
			if stated, ok := row[rel.Target].Number(); ok {
				f.Stated = ptr(stated)
			}
			findings = append(findings, f)
			continue
		}

		stated, ok := row[rel.Target].Number()
		if !ok {
			findings = append(findings, incomplete(rel.ID, i, rel.Target))
			continue
		}

		var computed float64
		switch rel.Op {
		case domain.OpSubtract:
			computed = left - right
		case domain.OpDivide:
			scale := rel.Scale
			if scale == 0 {
				scale = domain.DefaultScale
			}
			computed = left / right * scale
		}
		findings = append(findings, compare(rel.ID, i, computed, stated, settings))
	}
	return findings
}

func evaluateRowTotal(table domain.Table, rel domain.Relationship, settings Settings) []domain.Finding {
	summaryIdx := len(table.Rows) - 1
	if rel.SummaryRow != nil {
		summaryIdx = *rel.SummaryRow
	}

	var findings []domain.Finding
	computed := 0.0
	for i, row := range table.Rows {
		if i == summaryIdx {
			continue
		}
		v, ok := row[rel.Target].Number()
		if !ok {
			findings = append(findings, incomplete(rel.ID, i, rel.Target))
			continue
		}
		computed += v
	}

	stated, ok := table.Rows[summaryIdx][rel.Target].Number()
	if !ok {
		findings = append(findings, incomplete(rel.ID, summaryIdx, rel.Target))
		return findings
	}
	findings = append(findings, compare(rel.ID, summaryIdx, computed, stated, settings))
	return findings
}

// numbers extracts the numeric value of every named column from the row. On
// the first null or non-numeric cell it returns the offending column name and
// false; the row is then excluded from the relationship's evaluation.
func numbers(row domain.Row, columns []string) ([]float64, string, bool) {
	values := make([]float64, 0, len(columns))
	for _, column := range columns {
		v, ok := row[column].Number()
		if !ok {
			return nil, column, false
		}
		values = append(values, v)
	}
	return values, "", true
}

func compare(relID string, rowIdx int, computed, stated float64, settings Settings) domain.Finding {
	diff := math.Abs(computed - stated)
	return domain.Finding{
		RelationshipID: relID,
		RowIndex:       rowIdx,
		Computed:       ptr(computed),
		Stated:         ptr(stated),
		Diff:           ptr(diff),
		Classification: classify(diff, settings),
	}
}

func classify(diff float64, settings Settings) domain.Classification {
	switch {
	case diff <= settings.Tolerance:
		return domain.ClassPass
	case diff <= settings.Tolerance*settings.YellowBandFactor:
		return domain.ClassYellow
	default:
		return domain.ClassRed
	}
}

func incomplete(relID string, rowIdx int, column string) domain.Finding {
	return domain.Finding{
		RelationshipID: relID,
		RowIndex:       rowIdx,
		Classification: domain.ClassIncomplete,
		Note:           fmt.Sprintf("missing or non-numeric value in column %q", column),
	}
}

// rollup computes the overall status. Incomplete findings never escalate the
// run: missing data is reported, not punished.
func rollup(findings []domain.Finding) domain.Status {
	overall := domain.StatusGreen
	for _, f := range findings {
		switch f.Classification {
		case domain.ClassRed:
			return domain.StatusRed
		case domain.ClassYellow:
			overall = domain.StatusYellow
		}
	}
	return overall
}

// updateSummary records run-level counters and the per-relationship share of
// rows that could not be evaluated because of missing values.
func updateSummary(report *domain.Report, table domain.Table, relationships []domain.Relationship) {
	counts := map[domain.Classification]int{}
	missingByRel := map[string]int{}
	totalByRel := map[string]int{}
	for _, f := range report.Findings {
		counts[f.Classification]++
		totalByRel[f.RelationshipID]++
		if f.Classification == domain.ClassIncomplete {
			missingByRel[f.RelationshipID]++
		}
	}

	report.Summary["rows"] = len(table.Rows)
	report.Summary["relationships_declared"] = len(relationships)
	report.Summary["relationships_skipped"] = len(report.SchemaErrors)
	report.Summary["findings_pass"] = counts[domain.ClassPass]
	report.Summary["findings_yellow"] = counts[domain.ClassYellow]
	report.Summary["findings_red"] = counts[domain.ClassRed]
	report.Summary["findings_incomplete"] = counts[domain.ClassIncomplete]

	for _, rel := range relationships {
		if missing := missingByRel[rel.ID]; missing > 0 {
			pct := float64(missing) / float64(totalByRel[rel.ID]) * 100
			report.Summary[fmt.Sprintf("%s_missing_pct", rel.ID)] = pct
		}
	}
}

func ptr(v float64) *float64 {
	return &v
}
