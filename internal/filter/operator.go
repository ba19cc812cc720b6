package filter

import "fmt"

// Operator is a closed set of comparison operators. Values outside the
// defined range can only arrive through ParseOperator boundaries (for
// example deserialized saved filters); evaluation treats them as
// unrecognized and fails open with a warning.
type Operator int

const (
	Equals Operator = iota
	Contains
	StartsWith
	EndsWith
	GreaterThan
	LessThan
	Between
	In
	NotIn
	Regex
)

var operatorNames = map[Operator]string{
	Equals:      "equals",
	Contains:    "contains",
	StartsWith:  "starts_with",
	EndsWith:    "ends_with",
	GreaterThan: "greater_than",
	LessThan:    "less_than",
	Between:     "between",
	In:          "in",
	NotIn:       "not_in",
	Regex:       "regex",
}

// String returns the wire name of the operator.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

// ParseOperator maps a wire name back to an Operator. Unknown names are an
// error so that untyped boundaries surface bad input early; callers that
// want the legacy pass-through behavior can still build a Condition with an
// out-of-range Operator value.
func ParseOperator(name string) (Operator, error) {
	for op, n := range operatorNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown filter operator: %q", name)
}
