// Package cache persists records locally so criteria can be evaluated
// while offline. It is the storage collaborator behind the query core:
// records live in SQLite as JSON bodies, and Find loads a collection
// and runs the local evaluation pipeline over it.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sievekit/sieve/eval"
	"github.com/sievekit/sieve/query"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a record id is not cached.
var ErrNotFound = errors.New("cache: record not found")

// IDField is the record key carrying the cache identity. Records
// upserted without one get a generated UUID.
const IDField = "_id"

// Cache is a SQLite-backed local record store.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger
	eval   *eval.Evaluator
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger attaches a logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithEvaluator substitutes the evaluator used by Find and Remove.
func WithEvaluator(e *eval.Evaluator) Option {
	return func(c *Cache) { c.eval = e }
}

// Open creates or opens a cache database at the given path. The
// database is configured with WAL mode for concurrent reads, NORMAL
// synchronous mode, and a 5-second busy timeout. Open is idempotent.
func Open(path string, opts ...Option) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to cache database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	c := &Cache{db: db, logger: slog.Default(), eval: eval.New()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Upsert stores records in a collection, inserting or replacing by id.
// Records without an _id get a generated UUID, written back into the
// record. Returns the ids in input order; on error nothing is stored.
func (c *Cache) Upsert(ctx context.Context, collection string, records ...map[string]any) ([]string, error) {
	if collection == "" {
		return nil, errors.New("cache: collection name must not be empty")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO records (collection, id, body) VALUES (?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(records))
	for _, record := range records {
		id, ok := record[IDField].(string)
		if !ok || id == "" {
			id = uuid.NewString()
			record[IDField] = id
		}
		body, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encode record %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, id, string(body)); err != nil {
			return nil, fmt.Errorf("store record %s: %w", id, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	c.logger.Debug("upserted records", "collection", collection, "count", len(ids))
	return ids, nil
}

// Get loads a single record by id. Returns ErrNotFound when absent.
func (c *Cache) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	var body string
	err := c.db.QueryRowContext(ctx,
		"SELECT body FROM records WHERE collection = ? AND id = ?",
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	return decodeRecord(body)
}

// Find loads a collection and evaluates q against it locally (filter,
// project, sort, paginate). A nil criteria returns the whole
// collection in insertion-id order.
func (c *Cache) Find(ctx context.Context, collection string, q *query.Criteria) ([]map[string]any, error) {
	records, err := c.loadAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return records, nil
	}
	return c.eval.Process(q, records)
}

// Remove deletes every cached record in the collection matched by q's
// filter. Projection and pagination on q are ignored: removal targets
// the full matched set. A nil criteria removes nothing; use Clear to
// drop a whole collection.
func (c *Cache) Remove(ctx context.Context, collection string, q *query.Criteria) (int, error) {
	if q == nil {
		return 0, nil
	}
	snap, err := q.PlainObject()
	if err != nil {
		return 0, err
	}
	filterOnly, err := query.FromPlain(query.Snapshot{Filter: snap.Filter})
	if err != nil {
		return 0, err
	}

	records, err := c.loadAll(ctx, collection)
	if err != nil {
		return 0, err
	}
	matched, err := c.eval.Process(filterOnly, records)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}

	ids := make([]any, 0, len(matched))
	for _, record := range matched {
		if id, ok := record[IDField].(string); ok {
			ids = append(ids, id)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := append([]any{collection}, ids...)
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("remove records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	c.logger.Debug("removed records", "collection", collection, "count", n)
	return int(n), nil
}

// Clear drops every record in a collection and returns the count.
func (c *Cache) Clear(ctx context.Context, collection string) (int, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ?", collection)
	if err != nil {
		return 0, fmt.Errorf("clear collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *Cache) loadAll(ctx context.Context, collection string) ([]map[string]any, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT body FROM records WHERE collection = ? ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", collection, err)
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		record, err := decodeRecord(body)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func decodeRecord(body string) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}
	return record, nil
}
