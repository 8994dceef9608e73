package persistence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-tabular/core/infer"
	"github.com/asaidimu/go-tabular/core/query"
	"github.com/asaidimu/go-tabular/core/schema"
)

const (
	// DefaultQueryLimit applies when a query request does not specify a limit.
	DefaultQueryLimit = 100
	// MaxQueryLimit caps every query; requested limits clamp into [1, MaxQueryLimit].
	MaxQueryLimit = 1000
)

// Service implements the upload, query, and listing operations over an
// injected DocumentStore. It holds no cross-request mutable state besides the
// store itself and the subscription registry.
type Service struct {
	store         DocumentStore
	logger        *zap.Logger
	bus           *events.TypedEventBus[ServiceEvent]
	subMu         sync.RWMutex
	subscriptions map[string]*subscription
}

// NewService creates a Service around the given store. The store may be nil,
// in which case every persistent operation fails with ErrStorageUnavailable.
// A nil logger defaults to a no-op logger.
func NewService(store DocumentStore, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[ServiceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &Service{
		store:         store,
		logger:        logger,
		bus:           bus,
		subscriptions: make(map[string]*subscription),
	}, nil
}

// UploadCSV decodes and ingests one uploaded file: it validates the filename
// extension, infers the schema, persists the dataset metadata, and
// bulk-inserts all rows. Hard failures surface immediately with no partial
// recovery; a failure during the bulk insert leaves the dataset document
// without matching rows, a known non-atomicity gap.
func (s *Service) UploadCSV(ctx context.Context, filename string, content []byte) (*UploadResult, error) {
	start := time.Now()
	s.emit(newEvent(UploadStart, "upload", nil, nil, time.Time{}))

	result, err := s.uploadCSV(ctx, filename, content)
	if err != nil {
		s.emit(newEvent(UploadFailed, "upload", nil, err, start))
		return nil, err
	}

	s.emit(newEvent(UploadSuccess, "upload", &result.DatasetID, nil, start))
	return result, nil
}

func (s *Service) uploadCSV(ctx context.Context, filename string, content []byte) (*UploadResult, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, fmt.Errorf("%w: %q (only CSV files are supported)", schema.ErrUnsupportedFileType, filename)
	}

	text, err := infer.DecodeText(content)
	if err != nil {
		return nil, err
	}

	inferred, err := infer.Infer(text)
	if err != nil {
		return nil, err
	}

	dataset := schema.Dataset{
		Name:        filename,
		Columns:     inferred.Columns,
		ColumnTypes: inferred.Types,
		RowCount:    inferred.RowCount(),
	}
	datasetID, err := s.store.InsertOne(ctx, schema.CollectionDataset, dataset.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to insert dataset: %w", err)
	}

	if len(inferred.Rows) > 0 {
		now := time.Now().UTC()
		docs := make([]schema.Document, len(inferred.Rows))
		for i, row := range inferred.Rows {
			rec := schema.Record{DatasetID: datasetID, Data: row}
			doc := rec.Document()
			doc["created_at"] = now
			doc["updated_at"] = now
			docs[i] = doc
		}
		if err := s.store.InsertMany(ctx, schema.CollectionRecord, docs); err != nil {
			return nil, fmt.Errorf("failed to insert records: %w", err)
		}
	}

	s.logger.Info("dataset uploaded",
		zap.String("dataset_id", datasetID),
		zap.String("name", filename),
		zap.Int("row_count", dataset.RowCount))

	return &UploadResult{
		DatasetID:   datasetID,
		Name:        dataset.Name,
		Columns:     dataset.Columns,
		ColumnTypes: dataset.ColumnTypes,
		RowCount:    dataset.RowCount,
		Preview:     inferred.Preview,
	}, nil
}

// Query compiles the filter expression, executes it against the record
// collection scoped to the requested dataset, and returns the matching rows.
// The limit clamps into [1, MaxQueryLimit]; callers that want the default
// should pass DefaultQueryLimit.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	start := time.Now()
	s.emit(newEvent(QueryStart, "query", &req.DatasetID, nil, time.Time{}))

	result, err := s.runQuery(ctx, req)
	if err != nil {
		s.emit(newEvent(QueryFailed, "query", &req.DatasetID, err, start))
		return nil, err
	}

	s.emit(newEvent(QuerySuccess, "query", &req.DatasetID, nil, start))
	return result, nil
}

func (s *Service) runQuery(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	filter := query.Compile(req.DatasetID, req.Query)
	limit := clampLimit(req.Limit)

	docs, err := s.store.Find(ctx, schema.CollectionRecord, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	rows := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if data, ok := doc["data"].(map[string]any); ok {
			rows = append(rows, data)
		} else {
			rows = append(rows, map[string]any{})
		}
	}

	s.logger.Debug("query executed",
		zap.String("dataset_id", req.DatasetID),
		zap.String("query", req.Query),
		zap.Int("count", len(rows)))

	return &QueryResult{Rows: rows, Count: len(rows)}, nil
}

// ListDatasets returns the metadata of every stored dataset with identifiers
// rendered as strings.
func (s *Service) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	docs, err := s.store.Find(ctx, schema.CollectionDataset, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	infos := make([]DatasetInfo, 0, len(docs))
	for _, doc := range docs {
		infos = append(infos, DatasetInfo{
			ID:       asString(doc["id"]),
			Name:     asString(doc["name"]),
			Columns:  asStringSlice(doc["columns"]),
			RowCount: asInt(doc["row_count"]),
		})
	}
	return infos, nil
}

// Status reports whether the store is reachable and which collections exist.
func (s *Service) Status(ctx context.Context) StatusReport {
	report := StatusReport{Backend: "running"}
	if s.store == nil {
		report.Error = ErrStorageUnavailable.Error()
		return report
	}

	collections, err := s.store.Collections(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Database = true
	report.Collections = collections
	return report
}

// Subscribe registers a callback for a lifecycle event and returns an id for
// later unsubscription.
func (s *Service) Subscribe(event ServiceEventType, callback EventCallback) string {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	unsubscribe := s.bus.Subscribe(string(event), callback)
	id := uuid.New().String()
	s.subscriptions[id] = &subscription{event: event, unsubscribe: unsubscribe}
	return id
}

// Unsubscribe removes a subscription by its id.
func (s *Service) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if sub, ok := s.subscriptions[id]; ok {
		sub.unsubscribe()
		delete(s.subscriptions, id)
	}
}

func (s *Service) emit(event ServiceEvent) {
	if s.bus != nil {
		s.bus.Emit(string(event.Type), event)
	}
}

// clampLimit restricts a requested result limit to [1, MaxQueryLimit].
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// asString, asStringSlice, and asInt normalize values that may have gone
// through a JSON round trip inside a store backend.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, asString(item))
		}
		return out
	default:
		return nil
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
