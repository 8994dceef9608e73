// Package sqlite provides a SQLite-backed implementation of the
// persistence.DocumentStore interface. Each collection maps to one table with
// an id column and a JSON body column; predicates are evaluated in memory
// against the decoded bodies.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-tabular/core/persistence"
	"github.com/asaidimu/go-tabular/core/query"
	"github.com/asaidimu/go-tabular/core/schema"
)

// collectionNamePattern restricts collection names to safe SQL identifiers,
// since they are interpolated into DDL.
var collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements persistence.DocumentStore over a *sql.DB opened with the
// sqlite3 driver. Concurrency safety is delegated to database/sql's
// connection pool and SQLite's own locking.
type Store struct {
	db      *sql.DB
	logger  *zap.Logger
	matcher *query.Matcher
}

var _ persistence.DocumentStore = (*Store)(nil)

// Open opens (or creates) the SQLite database at path and wraps it in a
// Store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach sqlite database %q: %w", path, err)
	}
	return NewStore(db, logger), nil
}

// NewStore wraps an existing database handle. A nil logger defaults to a
// no-op logger.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		logger:  logger,
		matcher: query.NewMatcher(logger),
	}
}

// InsertOne stores the document under a generated uuid and returns it.
func (s *Store) InsertOne(ctx context.Context, collection string, doc schema.Document) (string, error) {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return "", err
	}

	id := uuid.New().String()
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %q (id, body) VALUES (?, ?)`, collection)
	if _, err := s.db.ExecContext(ctx, stmt, id, string(body)); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

// InsertMany stores all documents inside one transaction, so the bulk insert
// is atomic: either every row lands or none do.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (id, body) VALUES (?, ?)`, collection))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), string(body)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	s.logger.Debug("bulk insert committed",
		zap.String("collection", collection),
		zap.Int("count", len(docs)))
	return nil
}

// Find scans the collection table and applies the predicate in memory. A
// collection that was never written to behaves as empty.
func (s *Store) Find(ctx context.Context, collection string, filter *query.QueryFilter, limit int) ([]schema.Document, error) {
	exists, err := s.collectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, body FROM %q`, collection))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	defer rows.Close()

	var results []schema.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var doc schema.Document
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		doc["id"] = id

		matches, err := s.matcher.Match(doc, filter)
		if err != nil {
			return nil, err
		}
		if !matches {
			continue
		}
		results = append(results, doc)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return results, nil
}

// Collections lists the user tables of the database in sorted order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collection name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureCollection lazily creates the backing table for a collection.
func (s *Store) ensureCollection(ctx context.Context, collection string) error {
	if !collectionNamePattern.MatchString(collection) {
		return fmt.Errorf("invalid collection name: %q", collection)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (id TEXT PRIMARY KEY, body TEXT NOT NULL)`, collection)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}
	return nil
}

func (s *Store) collectionExists(ctx context.Context, collection string) (bool, error) {
	if !collectionNamePattern.MatchString(collection) {
		return false, fmt.Errorf("invalid collection name: %q", collection)
	}
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, collection).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up collection %s: %w", collection, err)
	}
	return true, nil
}
