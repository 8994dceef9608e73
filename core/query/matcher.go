package query

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-tabular/core/schema"
)

// Matcher evaluates compiled predicates against documents in memory. Store
// backends use it to implement find-with-predicate without a native query
// engine.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a Matcher. A nil logger defaults to a no-op logger.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Match reports whether a document satisfies the filter. A nil filter matches
// everything. Conditions over missing fields or mismatched types evaluate to
// false rather than erroring; only a structurally invalid filter returns an
// error.
func (m *Matcher) Match(doc schema.Document, filter *QueryFilter) (bool, error) {
	if filter == nil {
		return true, nil
	}
	return m.evaluate(doc, filter)
}

// evaluate recursively walks the filter tree.
func (m *Matcher) evaluate(doc schema.Document, filter *QueryFilter) (bool, error) {
	if filter.Condition != nil {
		return m.evaluateCondition(doc, filter.Condition)
	}
	if filter.Group != nil {
		switch filter.Group.Operator {
		case LogicalAnd:
			for _, cond := range filter.Group.Conditions {
				passes, err := m.evaluate(doc, &cond)
				if err != nil || !passes {
					return false, err
				}
			}
			return true, nil
		case LogicalOr:
			for _, cond := range filter.Group.Conditions {
				passes, err := m.evaluate(doc, &cond)
				if err != nil {
					return false, err
				}
				if passes {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported logical operator: %s", filter.Group.Operator)
		}
	}
	return false, fmt.Errorf("empty or invalid filter structure")
}

// evaluateCondition applies a single condition to the document.
//
// Equality is strict over dynamic types: a coerced int64 never equals a
// stored string cell, mirroring document-store type bracketing. Ordering
// operators compare numbers with numbers or strings with strings
// (lexicographically); any other pairing is simply false.
func (m *Matcher) evaluateCondition(doc schema.Document, condition *FilterCondition) (bool, error) {
	fieldValue, ok := lookupField(doc, condition.Field)
	if !ok {
		return false, nil
	}

	switch condition.Operator {
	case ComparisonOperatorEq:
		return equalValues(fieldValue, condition.Value), nil
	case ComparisonOperatorNeq:
		return !equalValues(fieldValue, condition.Value), nil
	case ComparisonOperatorGt:
		cmp, comparable := compareValues(fieldValue, condition.Value)
		return comparable && cmp > 0, nil
	case ComparisonOperatorGte:
		cmp, comparable := compareValues(fieldValue, condition.Value)
		return comparable && cmp >= 0, nil
	case ComparisonOperatorLt:
		cmp, comparable := compareValues(fieldValue, condition.Value)
		return comparable && cmp < 0, nil
	case ComparisonOperatorLte:
		cmp, comparable := compareValues(fieldValue, condition.Value)
		return comparable && cmp <= 0, nil
	case ComparisonOperatorContains:
		field, fok := fieldValue.(string)
		substr, sok := condition.Value.(string)
		if !fok || !sok {
			return false, nil
		}
		return strings.Contains(strings.ToLower(field), strings.ToLower(substr)), nil
	default:
		return false, fmt.Errorf("unsupported comparison operator: %s", condition.Operator)
	}
}

// lookupField resolves a possibly dotted field path ("data.price") through
// nested map values.
func lookupField(doc schema.Document, path string) (any, bool) {
	var current any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case schema.Document:
		return m, true
	default:
		return nil, false
	}
}

// equalValues compares two values with strict typing, except that numeric
// types compare across int64/float64 by value.
func equalValues(a, b any) bool {
	switch bv := b.(type) {
	case bool:
		av, ok := a.(bool)
		return ok && av == bv
	case string:
		av, ok := a.(string)
		return ok && av == bv
	default:
		if bn, ok := toNumber(b); ok {
			an, aok := toNumber(a)
			return aok && an == bn
		}
		return a == b
	}
}

// compareValues orders two values when they share a comparable family:
// number/number or string/string. The second return value is false when the
// pairing is not comparable.
func compareValues(a, b any) (int, bool) {
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		if !ok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}
