// Package persistence orchestrates dataset ingestion and querying over an
// abstract document store. The store collaborator is injected; this package
// owns neither its lifecycle nor its concurrency model beyond assuming atomic
// single-document and bulk-insert operations.
package persistence

import (
	"context"
	"errors"

	"github.com/asaidimu/go-tabular/core/query"
	"github.com/asaidimu/go-tabular/core/schema"
)

// ErrStorageUnavailable indicates the document store collaborator is not
// reachable or was never initialized. Operations fail immediately; there is
// no retry or queuing.
var ErrStorageUnavailable = errors.New("document store not available")

// DocumentStore is the abstract document store the service persists into,
// keyed by collection name. Implementations must provide their own
// concurrency safety.
type DocumentStore interface {
	// InsertOne stores a single document and returns its generated id.
	InsertOne(ctx context.Context, collection string, doc schema.Document) (string, error)
	// InsertMany stores documents in bulk, atomically per backend.
	InsertMany(ctx context.Context, collection string, docs []schema.Document) error
	// Find returns documents of a collection matching the filter, capped at
	// limit when limit is positive. A nil filter matches everything.
	Find(ctx context.Context, collection string, filter *query.QueryFilter, limit int) ([]schema.Document, error)
	// Collections lists the distinct collection names present in the store.
	Collections(ctx context.Context) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

// UploadResult is returned after a successful CSV upload.
type UploadResult struct {
	DatasetID   string                    `json:"dataset_id"`
	Name        string                    `json:"name"`
	Columns     []string                  `json:"columns"`
	ColumnTypes map[string]schema.TypeTag `json:"column_types"`
	RowCount    int                       `json:"row_count"`
	Preview     []schema.Row              `json:"preview"`
}

// QueryRequest describes one filter query against a dataset.
type QueryRequest struct {
	DatasetID string `json:"dataset_id"`
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
}

// QueryResult holds the matching rows of a query.
type QueryResult struct {
	Rows  []map[string]any `json:"rows"`
	Count int              `json:"count"`
}

// DatasetInfo is the listing view of a stored dataset.
type DatasetInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"row_count"`
}

// StatusReport describes store reachability, mirroring a health endpoint.
type StatusReport struct {
	Backend     string   `json:"backend"`
	Database    bool     `json:"database"`
	Collections []string `json:"collections,omitempty"`
	Error       string   `json:"error,omitempty"`
}
