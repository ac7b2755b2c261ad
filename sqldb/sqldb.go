// Package sqldb implements the run database surface on Postgres and an
// S3-compatible object store, for setups that run without the HTTP service.
// Documents live as JSONB rows; raw run logs live as objects.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/runweave-labs/runweave-go/internal/platform/objectstore"
	"github.com/runweave-labs/runweave-go/internal/platform/postgres"
	"github.com/runweave-labs/runweave-go/rundb"
)

// ErrNotFound reports a missing document.
var ErrNotFound = errors.New("not found")

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the embedded run database backend.
type Store struct {
	db       DB
	logs     LogStore
	interval time.Duration
	closer   io.Closer
}

type Options struct {
	// WatchInterval overrides the 2s log poll pause, mainly for tests.
	WatchInterval time.Duration
}

func New(db DB, logs LogStore, opts Options) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if logs == nil {
		return nil, errors.New("log store is required")
	}
	interval := opts.WatchInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Store{db: db, logs: logs, interval: interval}, nil
}

var _ rundb.RunDB = (*Store)(nil)

// Open wires the store from RUNWEAVE_DB_* and RUNWEAVE_S3_* variables,
// ensuring the schema and the log bucket exist.
func Open(ctx context.Context) (*Store, error) {
	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	client, err := objectstore.NewClient(storeCfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store client: %w", err)
	}
	if err := objectstore.EnsureBucket(ctx, client, storeCfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logs, err := NewObjectLogStore(client, storeCfg.BucketLogs)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := New(db, logs, Options{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.closer = db
	return store, nil
}

// Close releases the database handle when the store owns one.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func orDefault(project string) string {
	if project == "" {
		return rundb.DefaultProject
	}
	return project
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func encodeBody(v any) ([]byte, error) {
	if enc, ok := v.(rundb.Encodable); ok {
		return enc.ToJSON()
	}
	return json.Marshal(v)
}
