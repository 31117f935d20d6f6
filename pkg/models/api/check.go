package api

import (
	"time"

	"github.com/de-tools/tally/pkg/services/rules"
)

// CheckRequest is the body of POST /api/v1/check: a table, the declared
// relationships, and optional threshold overrides.
type CheckRequest struct {
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	Rules      []rules.Rule     `json:"rules"`
	Tolerance  *float64         `json:"tolerance,omitempty"`
	YellowBand *float64         `json:"yellow_band,omitempty"`
}

// Run is the wire form of a persisted reconciliation run.
type Run struct {
	ID           string    `json:"id"`
	Source       string    `json:"source,omitempty"`
	Overall      string    `json:"overall"`
	StartedAt    time.Time `json:"started_at"`
	FindingCount int       `json:"finding_count"`
}
