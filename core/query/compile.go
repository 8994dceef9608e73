package query

import "strings"

// DatasetField is the document field carrying the dataset scope. Every
// compiled predicate includes an equality condition on it; no predicate ever
// runs unscoped.
const DatasetField = "dataset_id"

// DataFieldPrefix is prepended to column names referenced in filter clauses,
// since record documents nest their cells under a "data" sub-document.
const DataFieldPrefix = "data."

// clauseSeparator joins clauses in the filter language. The split is
// case-sensitive and requires single-space padding; a value that itself
// contains " and " will mis-parse. Known ambiguity, left unresolved.
const clauseSeparator = " and "

// containsPrefix introduces a substring clause, matched case-insensitively.
const containsPrefix = "contains "

// compareTokens is the ordered operator scan list. Order matters:
// multi-character operators come before their single-character prefixes, and
// " is " carries its surrounding spaces. Because "=" precedes "!=", a clause
// written with "!=" splits on the bare "=" and its column name keeps the
// trailing "!". Preserved as-is for compatibility.
var compareTokens = []struct {
	token string
	op    ComparisonOperator
}{
	{">=", ComparisonOperatorGte},
	{"<=", ComparisonOperatorLte},
	{">", ComparisonOperatorGt},
	{"<", ComparisonOperatorLt},
	{"=", ComparisonOperatorEq},
	{"!=", ComparisonOperatorNeq},
	{" is ", ComparisonOperatorEq},
}

// Compile parses a filter expression into a predicate scoped to the given
// dataset. An empty expression compiles to the dataset scope alone, matching
// every record of the dataset.
//
// Malformed clauses never raise: a clause that matches no operator, or a
// contains clause with fewer than three tokens, is silently dropped and the
// remaining clauses still apply. This leniency is deliberate and load-bearing;
// existing queries rely on partial matches.
func Compile(datasetID, text string) *QueryFilter {
	scope := CreateSimpleFilter(DatasetField, ComparisonOperatorEq, datasetID)

	text = strings.TrimSpace(text)
	if text == "" {
		return &scope
	}

	conditions := []QueryFilter{scope}
	for _, raw := range strings.Split(text, clauseSeparator) {
		clause := strings.TrimSpace(raw)
		if clause == "" {
			continue
		}
		if parsed, ok := parseClause(clause); ok {
			conditions = append(conditions, parsed)
		}
	}

	if len(conditions) == 1 {
		return &scope
	}
	group := CreateFilterGroup(LogicalAnd, conditions...)
	return &group
}

// parseClause turns one clause substring into a condition. The second return
// value is false when the clause is malformed and must be dropped.
func parseClause(clause string) (QueryFilter, bool) {
	if strings.HasPrefix(strings.ToLower(clause), containsPrefix) {
		parts := strings.Fields(clause)
		if len(parts) < 3 {
			return QueryFilter{}, false
		}
		column := parts[1]
		value := strings.Join(parts[2:], " ")
		return CreateSimpleFilter(DataFieldPrefix+column, ComparisonOperatorContains, value), true
	}

	for _, ct := range compareTokens {
		idx := strings.Index(clause, ct.token)
		if idx < 0 {
			continue
		}
		column := strings.TrimSpace(clause[:idx])
		value := strings.TrimSpace(clause[idx+len(ct.token):])
		return CreateSimpleFilter(DataFieldPrefix+column, ct.op, CoerceLiteral(value)), true
	}

	return QueryFilter{}, false
}
