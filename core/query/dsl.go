// Package query defines the structured filter predicate evaluated against
// stored records, the compiler that builds predicates from the constrained
// pseudo-natural-language filter syntax, and an in-memory matcher used by
// store backends to evaluate predicates against documents.
package query

// LogicalOperator combines filter conditions inside a group.
type LogicalOperator string

// Supported logical operators. The filter language itself only ever emits
// conjunctions; disjunction exists for programmatic callers.
const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
)

// ComparisonOperator defines the set of operators usable in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq       ComparisonOperator = "eq"
	ComparisonOperatorNeq      ComparisonOperator = "neq"
	ComparisonOperatorLt       ComparisonOperator = "lt"
	ComparisonOperatorLte      ComparisonOperator = "lte"
	ComparisonOperatorGt       ComparisonOperator = "gt"
	ComparisonOperatorGte      ComparisonOperator = "gte"
	ComparisonOperatorContains ComparisonOperator = "contains"
)

// FilterValue represents the value side of a filter condition. Depending on
// how the literal coerced it is a string, int64, float64, or bool.
type FilterValue any

// FilterCondition is a single field-level condition.
type FilterCondition struct {
	Field    string             // The field to apply the filter on.
	Operator ComparisonOperator // The comparison operator to use.
	Value    FilterValue        // The value to compare against.
}

// FilterGroup combines multiple filter conditions using a logical operator.
type FilterGroup struct {
	Operator   LogicalOperator // The logical operator combining the conditions.
	Conditions []QueryFilter   // The list of conditions or nested groups.
}

// QueryFilter is a union type holding either a single filter condition or a
// group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"`
	Group     *FilterGroup     `json:",omitempty"`
}

// CreateSimpleFilter is a helper that wraps a single condition in a QueryFilter.
func CreateSimpleFilter(field string, operator ComparisonOperator, value FilterValue) QueryFilter {
	return QueryFilter{
		Condition: &FilterCondition{
			Field:    field,
			Operator: operator,
			Value:    value,
		},
	}
}

// CreateFilterGroup is a helper that combines filters under a logical operator.
func CreateFilterGroup(operator LogicalOperator, conditions ...QueryFilter) QueryFilter {
	return QueryFilter{
		Group: &FilterGroup{
			Operator:   operator,
			Conditions: conditions,
		},
	}
}

// Conditions returns the flat condition list of a filter: the filter itself
// for a simple condition, or the group's immediate members. Useful for
// inspecting compiled predicates.
func (f *QueryFilter) Conditions() []QueryFilter {
	if f == nil {
		return nil
	}
	if f.Group != nil {
		return f.Group.Conditions
	}
	if f.Condition != nil {
		return []QueryFilter{*f}
	}
	return nil
}
