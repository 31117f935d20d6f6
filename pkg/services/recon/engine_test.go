package recon

import (
	"encoding/json"
	"testing"

	"github.com/de-tools/tally/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(cells map[string]domain.Value) domain.Row {
	return domain.Row(cells)
}

func additive(id, target string, sources ...string) domain.Relationship {
	return domain.Relationship{ID: id, Kind: domain.Additive, Target: target, Sources: sources}
}

func TestEvaluate_Additive(t *testing.T) {
	settings := DefaultSettings()

	t.Run("exact match passes with zero diff", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"A", "B", "Total"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(30)}),
			},
		}

		report, err := Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, settings)

		require.NoError(t, err)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, domain.ClassPass, f.Classification)
		assert.Equal(t, 0.0, *f.Diff)
		assert.Equal(t, 30.0, *f.Computed)
		assert.Equal(t, domain.StatusGreen, report.Overall)
	})

	t.Run("any diff over tolerance is RED by default", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"A", "B", "Total"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(30.02)}),
			},
		}

		report, err := Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, settings)

		require.NoError(t, err)
		require.Len(t, report.Findings, 1)
		assert.Equal(t, domain.ClassRed, report.Findings[0].Classification)
		assert.InDelta(t, 0.02, *report.Findings[0].Diff, 1e-9)
		assert.Equal(t, domain.StatusRed, report.Overall)
	})

	t.Run("diff at tolerance boundary is inclusive PASS", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"A", "B", "Total"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(30.01)}),
			},
		}

		report, err := Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, settings)

		require.NoError(t, err)
		assert.Equal(t, domain.ClassPass, report.Findings[0].Classification)
		assert.Equal(t, domain.StatusGreen, report.Overall)
	})

	t.Run("configured yellow band classifies small drifts YELLOW", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"A", "B", "Total"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(30.05)}),
			},
		}
		banded := Settings{Tolerance: 0.01, YellowBandFactor: 10}

		report, err := Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, banded)

		require.NoError(t, err)
		assert.Equal(t, domain.ClassYellow, report.Findings[0].Classification)
		assert.Equal(t, domain.StatusYellow, report.Overall)

		// Beyond the band it falls through to RED.
		table.Rows[0]["Total"] = domain.Number(30.2)
		report, err = Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, banded)
		require.NoError(t, err)
		assert.Equal(t, domain.ClassRed, report.Findings[0].Classification)
	})
}

func TestEvaluate_Derived(t *testing.T) {
	settings := DefaultSettings()

	t.Run("subtract mismatch is RED", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"Rev", "Cost", "Profit"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"Rev": domain.Number(100), "Cost": domain.Number(60), "Profit": domain.Number(41)}),
			},
		}
		rel := domain.Relationship{
			ID: "profit", Kind: domain.Derived, Target: "Profit",
			Left: "Rev", Right: "Cost", Op: domain.OpSubtract,
		}

		report, err := Evaluate(table, []domain.Relationship{rel}, settings)

		require.NoError(t, err)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, 40.0, *f.Computed)
		assert.Equal(t, 41.0, *f.Stated)
		assert.Equal(t, 1.0, *f.Diff)
		assert.Equal(t, domain.ClassRed, f.Classification)
	})

	t.Run("divide with scale checks a percentage", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"Profit", "Rev", "Margin"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"Profit": domain.Number(40), "Rev": domain.Number(100), "Margin": domain.Number(40)}),
			},
		}
		rel := domain.Relationship{
			ID: "margin", Kind: domain.Derived, Target: "Margin",
			Left: "Profit", Right: "Rev", Op: domain.OpDivide, Scale: 100,
		}

		report, err := Evaluate(table, []domain.Relationship{rel}, settings)

		require.NoError(t, err)
		assert.Equal(t, domain.ClassPass, report.Findings[0].Classification)
	})

	t.Run("zero divisor is a RED finding even with a missing target", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"Profit", "Rev", "Margin"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"Profit": domain.Number(40), "Rev": domain.Number(0), "Margin": domain.Null()}),
			},
		}
		rel := domain.Relationship{
			ID: "margin", Kind: domain.Derived, Target: "Margin",
			Left: "Profit", Right: "Rev", Op: domain.OpDivide,
		}

		report, err := Evaluate(table, []domain.Relationship{rel}, settings)

		require.NoError(t, err)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, domain.ClassRed, f.Classification)
		assert.Nil(t, f.Computed)
		assert.Contains(t, f.Note, "division by zero")
		assert.Equal(t, domain.StatusRed, report.Overall)
	})
}

func TestEvaluate_RowTotal(t *testing.T) {
	settings := DefaultSettings()

	t.Run("last row is the summary row by default", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"Region", "Sales"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"Region": domain.String("north"), "Sales": domain.Number(120)}),
				row(map[string]domain.Value{"Region": domain.String("south"), "Sales": domain.Number(80)}),
				row(map[string]domain.Value{"Region": domain.String("total"), "Sales": domain.Number(200)}),
			},
		}
		rel := domain.Relationship{ID: "grand_total", Kind: domain.RowTotal, Target: "Sales"}

		report, err := Evaluate(table, []domain.Relationship{rel}, settings)

		require.NoError(t, err)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, 2, f.RowIndex)
		assert.Equal(t, 200.0, *f.Computed)
		assert.Equal(t, domain.ClassPass, f.Classification)
	})

	t.Run("caller-specified summary row", func(t *testing.T) {
		summary := 0
		table := domain.Table{
			Columns: []string{"Sales"},
			Rows: []domain.Row{
				row(map[string]domain.Value{"Sales": domain.Number(199)}),
				row(map[string]domain.Value{"Sales": domain.Number(120)}),
				row(map[string]domain.Value{"Sales": domain.Number(80)}),
			},
		}
		rel := domain.Relationship{ID: "grand_total", Kind: domain.RowTotal, Target: "Sales", SummaryRow: &summary}

		report, err := Evaluate(table, []domain.Relationship{rel}, settings)

		require.NoError(t, err)
		f := report.Findings[0]
		assert.Equal(t, 0, f.RowIndex)
		assert.Equal(t, 1.0, *f.Diff)
		assert.Equal(t, domain.ClassRed, f.Classification)
	})
}

func TestEvaluate_MissingValues(t *testing.T) {
	settings := DefaultSettings()

	table := domain.Table{
		Columns: []string{"A", "B", "Total"},
		Rows: []domain.Row{
			row(map[string]domain.Value{"A": domain.Number(1), "B": domain.Null(), "Total": domain.Number(1)}),
			row(map[string]domain.Value{"A": domain.Number(2), "B": domain.Number(3), "Total": domain.Number(5)}),
		},
	}

	report, err := Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, settings)

	require.NoError(t, err)
	require.Len(t, report.Findings, 2)

	assert.Equal(t, domain.ClassIncomplete, report.Findings[0].Classification)
	assert.Nil(t, report.Findings[0].Diff)
	assert.Contains(t, report.Findings[0].Note, `"B"`)
	assert.Equal(t, domain.ClassPass, report.Findings[1].Classification)

	// Missing data is reported, it does not escalate the run.
	assert.Equal(t, domain.StatusGreen, report.Overall)
	assert.Equal(t, 50.0, report.Summary["totals_missing_pct"])
}

func TestEvaluate_SchemaErrors(t *testing.T) {
	settings := DefaultSettings()

	table := domain.Table{
		Columns: []string{"A", "B", "Total"},
		Rows: []domain.Row{
			row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(30)}),
		},
	}
	relationships := []domain.Relationship{
		additive("bad", "Total2", "A", "B"),
		additive("good", "Total", "A", "B"),
	}

	report, err := Evaluate(table, relationships, settings)

	require.NoError(t, err)
	require.Len(t, report.SchemaErrors, 1)
	assert.Equal(t, "bad", report.SchemaErrors[0].RelationshipID)
	assert.Contains(t, report.SchemaErrors[0].Detail, `"Total2"`)

	// The bad relationship does not prevent evaluation of the rest.
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "good", report.Findings[0].RelationshipID)
	assert.Equal(t, domain.ClassPass, report.Findings[0].Classification)
}

func TestEvaluate_EmptyTable(t *testing.T) {
	table := domain.Table{Columns: []string{"A"}}

	_, err := Evaluate(table, []domain.Relationship{additive("r", "A", "A")}, DefaultSettings())

	assert.ErrorIs(t, err, domain.ErrEmptyTable)
}

func TestEvaluate_NegativeTolerance(t *testing.T) {
	table := domain.Table{
		Columns: []string{"A"},
		Rows:    []domain.Row{row(map[string]domain.Value{"A": domain.Number(1)})},
	}

	_, err := Evaluate(table, nil, Settings{Tolerance: -1})

	assert.Error(t, err)
}

func TestEvaluate_Deterministic(t *testing.T) {
	table := domain.Table{
		Columns: []string{"A", "B", "Total", "Diff"},
		Rows: []domain.Row{
			row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(4), "Total": domain.Number(14), "Diff": domain.Number(6)}),
			row(map[string]domain.Value{"A": domain.Number(7), "B": domain.Null(), "Total": domain.Number(7), "Diff": domain.Number(7)}),
		},
	}
	relationships := []domain.Relationship{
		additive("totals", "Total", "A", "B"),
		{ID: "diffs", Kind: domain.Derived, Target: "Diff", Left: "A", Right: "B", Op: domain.OpSubtract},
	}

	first, err := Evaluate(table, relationships, DefaultSettings())
	require.NoError(t, err)
	second, err := Evaluate(table, relationships, DefaultSettings())
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)

	// Findings follow (relationship order, row order).
	ids := make([]string, 0, len(first.Findings))
	for _, f := range first.Findings {
		ids = append(ids, f.RelationshipID)
	}
	assert.Equal(t, []string{"totals", "totals", "diffs", "diffs"}, ids)
}

func TestEvaluate_DiffNeverNegative(t *testing.T) {
	table := domain.Table{
		Columns: []string{"A", "B", "Total"},
		Rows: []domain.Row{
			row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(90)}),
			row(map[string]domain.Value{"A": domain.Number(10), "B": domain.Number(20), "Total": domain.Number(-90)}),
		},
	}

	report, err := Evaluate(table, []domain.Relationship{additive("totals", "Total", "A", "B")}, DefaultSettings())

	require.NoError(t, err)
	for _, f := range report.Findings {
		require.NotNil(t, f.Diff)
		assert.GreaterOrEqual(t, *f.Diff, 0.0)
	}
}
