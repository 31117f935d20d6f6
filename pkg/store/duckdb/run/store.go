package run

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/tally/pkg/models/store"
	"github.com/de-tools/tally/pkg/store/duckdb"
)

// Store persists reconciliation runs and their findings. Recording is
// append-only; runs are immutable once written.
type Store interface {
	RecordRun(ctx context.Context, run store.Run, findings []store.Finding) error
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetFindings(ctx context.Context, runID string) ([]store.Finding, error)
}

type runStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &runStore{db: db}, nil
}

func (s *runStore) RecordRun(ctx context.Context, run store.Run, findings []store.Finding) error {
	// A run and its findings land atomically: join the ambient transaction
	// when the caller opened one, otherwise open our own.
	if duckdb.GetTransaction(ctx) == nil {
		return duckdb.InTx(ctx, s.db, func(ctx context.Context) error {
			return s.RecordRun(ctx, run, findings)
		})
	}
	tx := duckdb.GetTransaction(ctx)

	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	err := exec(
		`INSERT INTO runs (id, source, overall, started_at, finding_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Overall, run.StartedAt, run.FindingCount,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range findings {
		err := exec(
			`INSERT INTO run_findings (run_id, relationship, row_idx, computed, stated, diff, classification, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, f.Relationship, f.RowIndex, f.Computed, f.Stated, f.Diff, f.Classification, f.Note,
		)
		if err != nil {
			return fmt.Errorf("insert finding: %w", err)
		}
	}
	return nil
}

func (s *runStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, overall, started_at, finding_count
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var r store.Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Overall, &r.StartedAt, &r.FindingCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *runStore) GetFindings(ctx context.Context, runID string) ([]store.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, relationship, row_idx, computed, stated, diff, classification, note
		 FROM run_findings WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []store.Finding
	for rows.Next() {
		var f store.Finding
		var note sql.NullString
		if err := rows.Scan(&f.RunID, &f.Relationship, &f.RowIndex, &f.Computed, &f.Stated, &f.Diff, &f.Classification, &note); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Note = note.String
		findings = append(findings, f)
	}
	return findings, rows.Err()
}
