package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyTable aborts an entire evaluation: there is nothing to check.
var ErrEmptyTable = errors.New("table has no rows")

// SchemaError means a relationship references something the table does not
// have. It aborts only the offending relationship; the rest of the run
// proceeds.
type SchemaError struct {
	RelationshipID string
	Detail         string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("relationship %q: %s", e.RelationshipID, e.Detail)
}
