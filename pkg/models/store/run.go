package store

import "time"

// Run is one persisted reconciliation run.
type Run struct {
	ID           string
	Source       string // table file path or "api"
	Overall      string
	StartedAt    time.Time
	FindingCount int
}

// Finding is the persisted form of a single reconciliation finding.
type Finding struct {
	RunID          string
	Relationship   string
	RowIndex       int
	Computed       *float64
	Stated         *float64
	Diff           *float64
	Classification string
	Note           string
}
