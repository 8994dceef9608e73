// Package schema defines the shared data model for uploaded datasets: the
// per-column type tags produced by inference, the dataset and record document
// shapes persisted in the document store, and the sentinel errors surfaced by
// the ingestion pipeline.
package schema

import "errors"

// TypeTag identifies the inferred type of a dataset column. Tags are inferred
// per column, never per cell, so individual cells may violate the tag (a
// "number" column can still hold an empty string). Consumers must tolerate
// this.
type TypeTag string

// Supported column type tags.
const (
	TypeString  TypeTag = "string"  // Text data, also the fallback tag
	TypeNumber  TypeTag = "number"  // Integer or floating-point literals
	TypeBoolean TypeTag = "boolean" // "true"/"false" in any casing
	TypeDate    TypeTag = "date"    // Heuristic only, not validated as a calendar date
)

// Collection names used in the document store.
const (
	CollectionDataset = "dataset"
	CollectionRecord  = "record"
)

// Document is a generic document as stored in and returned by the document
// store.
type Document map[string]any

// Row holds one decoded CSV row as a mapping from column name to the raw cell
// string. No type coercion is applied at storage time; coercion happens at
// query time.
type Row map[string]string

// Dataset is the metadata document created once per upload. It is immutable
// after creation and never deleted.
type Dataset struct {
	ID          string             `json:"id,omitempty"`
	Name        string             `json:"name"`
	Columns     []string           `json:"columns"`
	ColumnTypes map[string]TypeTag `json:"column_types"`
	RowCount    int                `json:"row_count"`
}

// Record is a single stored row belonging to exactly one dataset. The dataset
// reference is an id string, not an ownership pointer.
type Record struct {
	DatasetID string `json:"dataset_id"`
	Data      Row    `json:"data"`
}

// Errors surfaced by the ingestion pipeline. All of them abort the upload
// with no partial write.
var (
	// ErrEmptySchema indicates the CSV input has no header row.
	ErrEmptySchema = errors.New("csv has no header row")
	// ErrDecode indicates the byte stream could not be interpreted as text
	// even after lenient decoding.
	ErrDecode = errors.New("unable to decode input as text")
	// ErrUnsupportedFileType indicates the uploaded filename does not carry a
	// recognized extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Document converts the dataset metadata to its stored document form. The id
// is omitted: the store assigns one on insert.
func (d *Dataset) Document() Document {
	return Document{
		"name":         d.Name,
		"columns":      d.Columns,
		"column_types": d.ColumnTypes,
		"row_count":    d.RowCount,
	}
}

// Document converts the record to its stored document form. Cell values stay
// raw strings.
func (r *Record) Document() Document {
	data := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	return Document{
		"dataset_id": r.DatasetID,
		"data":       data,
	}
}
