package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const RunsSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		id VARCHAR NOT NULL,
		source VARCHAR,
		overall VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finding_count INTEGER NOT NULL,
		PRIMARY KEY (id)
	);
`
const FindingsSchema = `
	CREATE TABLE IF NOT EXISTS run_findings (
		run_id VARCHAR NOT NULL,
		relationship VARCHAR NOT NULL,
		row_idx INTEGER NOT NULL,
		computed DOUBLE,
		stated DOUBLE,
		diff DOUBLE,
		classification VARCHAR NOT NULL,
		note VARCHAR
	);
`

var bootQueries = []string{
	RunsSchema,
	FindingsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
