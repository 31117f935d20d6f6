package domain

// RelationshipKind identifies which arithmetic constraint a relationship
// declares over a table.
type RelationshipKind string

const (
	// Additive declares target = sum(sources) on every row.
	Additive RelationshipKind = "additive"
	// Derived declares target = op(left, right) on every row.
	Derived RelationshipKind = "derived"
	// RowTotal declares that a summary row's target column equals the sum of
	// the target column over all other rows.
	RowTotal RelationshipKind = "row_total"
)

// Operator is the two-operand arithmetic applied by a Derived relationship.
type Operator string

const (
	OpSubtract Operator = "subtract"
	// OpDivide computes left / right scaled by Relationship.Scale
	// (e.g. scale 100 yields a percentage).
	OpDivide Operator = "divide"
)

// DefaultScale is applied to OpDivide relationships that do not declare one.
const DefaultScale = 100

// Relationship is a declared arithmetic constraint over column names.
// The populated fields depend on Kind: Additive uses Target and Sources,
// Derived uses Target, Left, Right, Op and Scale, RowTotal uses Target and
// SummaryRow.
type Relationship struct {
	ID     string
	Kind   RelationshipKind
	Target string

	Sources []string

	Left  string
	Right string
	Op    Operator
	Scale float64

	// SummaryRow is a zero-based row index; nil means the last row.
	SummaryRow *int
}

// Referenced lists every column name the relationship touches, target first.
func (r Relationship) Referenced() []string {
	switch r.Kind {
	case Additive:
		return append([]string{r.Target}, r.Sources...)
	case Derived:
		return []string{r.Target, r.Left, r.Right}
	case RowTotal:
		return []string{r.Target}
	}
	return nil
}
