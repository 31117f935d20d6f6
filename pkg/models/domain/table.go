package domain

// ValueKind discriminates the payload carried by a table cell.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueNumber
	ValueString
)

// Value is a single table cell: a number, a string, or null.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

func Null() Value {
	return Value{Kind: ValueNull}
}

func Number(n float64) Value {
	return Value{Kind: ValueNumber, Num: n}
}

func String(s string) Value {
	return Value{Kind: ValueString, Str: s}
}

func (v Value) IsNull() bool {
	return v.Kind == ValueNull
}

// Number returns the numeric payload. The second result is false for null
// and string cells.
func (v Value) Number() (float64, bool) {
	if v.Kind != ValueNumber {
		return 0, false
	}
	return v.Num, true
}

// Row maps column name to cell value.
type Row map[string]Value

// Table is an ordered, rectangular collection of rows. Every row carries the
// same set of column names; loaders enforce this at construction time.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
