package domain

// Classification is the per-finding verdict. Ordering matters: the overall
// report status is the maximum severity across findings, and Incomplete
// deliberately sits below Yellow so missing data never escalates a run.
type Classification int

const (
	ClassPass Classification = iota
	ClassIncomplete
	ClassYellow
	ClassRed
)

func (c Classification) String() string {
	switch c {
	case ClassPass:
		return "PASS"
	case ClassIncomplete:
		return "INCOMPLETE"
	case ClassYellow:
		return "YELLOW"
	case ClassRed:
		return "RED"
	}
	return "UNKNOWN"
}

// Status is the rollup over a whole report.
type Status int

const (
	StatusGreen Status = iota
	StatusYellow
	StatusRed
)

func (s Status) String() string {
	switch s {
	case StatusGreen:
		return "GREEN"
	case StatusYellow:
		return "YELLOW"
	case StatusRed:
		return "RED"
	}
	return "UNKNOWN"
}

// Finding is the result of evaluating one relationship against one row.
// Computed, Stated and Diff are nil when the check could not produce a value
// (missing inputs, division by zero).
type Finding struct {
	RelationshipID string
	RowIndex       int
	Computed       *float64
	Stated         *float64
	Diff           *float64
	Classification Classification
	Note           string
}

// Report is the aggregate output of one evaluation run. Findings are ordered
// by (relationship declaration order, row index), which makes repeated runs
// over identical inputs byte-identical once serialized.
type Report struct {
	Findings     []Finding
	SchemaErrors []SchemaError
	Overall      Status
	Summary      map[string]any
}
