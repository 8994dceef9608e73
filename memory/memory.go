// Package memory provides a map-backed implementation of the
// persistence.DocumentStore interface. It is intended for tests and
// ephemeral runs; nothing survives process exit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-tabular/core/persistence"
	"github.com/asaidimu/go-tabular/core/query"
	"github.com/asaidimu/go-tabular/core/schema"
)

// Store keeps documents per collection in insertion order, guarded by a
// single RWMutex. Predicates are evaluated with the in-memory matcher.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]schema.Document
	matcher     *query.Matcher
}

var _ persistence.DocumentStore = (*Store)(nil)

// NewStore creates an empty in-memory store. A nil logger defaults to a
// no-op logger for the matcher.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		collections: make(map[string][]schema.Document),
		matcher:     query.NewMatcher(logger),
	}
}

// InsertOne stores a copy of the document under a generated id.
func (s *Store) InsertOne(ctx context.Context, collection string, doc schema.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneDocument(doc)
	id := uuid.New().String()
	stored["id"] = id
	s.collections[collection] = append(s.collections[collection], stored)
	return id, nil
}

// InsertMany stores copies of all documents. The write lock makes the bulk
// insert atomic with respect to concurrent readers.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		stored := cloneDocument(doc)
		stored["id"] = uuid.New().String()
		s.collections[collection] = append(s.collections[collection], stored)
	}
	return nil
}

// Find returns copies of the documents matching the filter, in insertion
// order, capped at limit when limit is positive.
func (s *Store) Find(ctx context.Context, collection string, filter *query.QueryFilter, limit int) ([]schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []schema.Document
	for _, doc := range s.collections[collection] {
		matches, err := s.matcher.Match(doc, filter)
		if err != nil {
			return nil, err
		}
		if !matches {
			continue
		}
		results = append(results, cloneDocument(doc))
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Collections lists the collection names in sorted order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// cloneDocument makes a shallow copy one level deep, enough to keep stored
// documents isolated from caller mutation of the top-level and data maps.
func cloneDocument(doc schema.Document) schema.Document {
	out := make(schema.Document, len(doc))
	for k, v := range doc {
		if nested, ok := v.(map[string]any); ok {
			nestedCopy := make(map[string]any, len(nested))
			for nk, nv := range nested {
				nestedCopy[nk] = nv
			}
			out[k] = nestedCopy
			continue
		}
		out[k] = v
	}
	return out
}
