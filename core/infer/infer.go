// Package infer implements the schema inference engine. Given raw CSV text it
// produces the ordered column list, a per-column type tag decided by majority
// vote over a bounded sample, the full decoded row set, and a bounded preview.
// Inference is a pure function over its input; persistence is the caller's
// responsibility.
package infer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/asaidimu/go-tabular/core/schema"
)

const (
	// previewLimit bounds the preview row set returned to callers.
	previewLimit = 50
	// sampleLimit bounds how many rows participate in type voting. Rows
	// beyond the sample are still retained for storage.
	sampleLimit = 100
)

// Result is the outcome of schema inference over one CSV input.
type Result struct {
	Columns []string                  `json:"columns"`
	Types   map[string]schema.TypeTag `json:"column_types"`
	Rows    []schema.Row              `json:"-"`
	Preview []schema.Row              `json:"preview"`
}

// RowCount returns the number of decoded data rows, excluding the header.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// DecodeText converts raw upload bytes to text. Decoding is deliberately
// lenient: invalid byte sequences are replaced rather than failing the whole
// upload, and a leading UTF-8 BOM is stripped. Only a catastrophic transform
// failure surfaces as schema.ErrDecode.
func DecodeText(raw []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", schema.ErrDecode, err)
	}
	return string(decoded), nil
}

// Infer parses CSV text with a header row and infers a column type for each
// header by majority vote over the first sampleLimit rows. All data rows are
// retained in Result.Rows; the first previewLimit rows are duplicated into
// Result.Preview. A missing header row yields schema.ErrEmptySchema.
func Infer(csvText string) (*Result, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF || (err == nil && len(header) == 0) {
		return nil, schema.ErrEmptySchema
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make([]string, len(header))
	copy(columns, header)

	// Duplicate headers are not rejected; in the row map the later column
	// simply overwrites the earlier one. Known edge case.
	tallies := make(map[string]*voteTally, len(columns))
	for _, c := range columns {
		tallies[c] = &voteTally{counts: make(map[schema.TypeTag]int)}
	}

	result := &Result{Columns: columns}
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", i+1, err)
		}

		row := make(schema.Row, len(columns))
		for j, c := range columns {
			if j < len(record) {
				row[c] = record[j]
			} else {
				// Short rows pad missing cells; long rows drop extras.
				row[c] = ""
			}
		}

		result.Rows = append(result.Rows, row)
		if len(result.Preview) < previewLimit {
			result.Preview = append(result.Preview, row)
		}
		if i < sampleLimit {
			for _, c := range columns {
				tallies[c].add(detectType(row[c]))
			}
		}
	}

	result.Types = make(map[string]schema.TypeTag, len(columns))
	for _, c := range columns {
		result.Types[c] = tallies[c].winner()
	}
	return result, nil
}

// detectType classifies a single cell value. The checks are ordered and the
// first match wins; empty cells vote string rather than introducing a null
// tag.
func detectType(value string) schema.TypeTag {
	if value == "" {
		return schema.TypeString
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return schema.TypeString
	}
	switch strings.ToLower(v) {
	case "true", "false":
		return schema.TypeBoolean
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return schema.TypeNumber
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return schema.TypeNumber
	}
	if strings.ContainsAny(v, "-/") && strings.ContainsAny(v, "0123456789") {
		return schema.TypeDate
	}
	return schema.TypeString
}

// voteTally accumulates type votes for one column. Introduction order is
// tracked so that ties resolve to the tag whose first vote came earlier in
// the sample.
type voteTally struct {
	counts map[schema.TypeTag]int
	order  []schema.TypeTag
}

func (t *voteTally) add(tag schema.TypeTag) {
	if _, seen := t.counts[tag]; !seen {
		t.order = append(t.order, tag)
	}
	t.counts[tag]++
}

// winner returns the tag with the most votes, ties broken by introduction
// order. A column with no sampled rows defaults to string.
func (t *voteTally) winner() schema.TypeTag {
	winner := schema.TypeString
	best := 0
	for _, tag := range t.order {
		if t.counts[tag] > best {
			winner = tag
			best = t.counts[tag]
		}
	}
	return winner
}
