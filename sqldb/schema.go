package sqldb

import (
	"context"
	"fmt"
)

// Schema statements are idempotent so Open can run them on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		project    TEXT NOT NULL,
		uid        TEXT NOT NULL,
		iteration  INTEGER NOT NULL DEFAULT 0,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (project, uid, iteration)
	)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		project    TEXT NOT NULL,
		uid        TEXT NOT NULL,
		key        TEXT NOT NULL,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (project, uid, key)
	)`,
	`CREATE TABLE IF NOT EXISTS artifact_tags (
		project TEXT NOT NULL,
		key     TEXT NOT NULL,
		tag     TEXT NOT NULL,
		uid     TEXT NOT NULL,
		PRIMARY KEY (project, key, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS functions (
		project    TEXT NOT NULL,
		name       TEXT NOT NULL,
		tag        TEXT NOT NULL DEFAULT '',
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (project, name, tag)
	)`,
	`CREATE INDEX IF NOT EXISTS runs_state_idx ON runs ((body->'status'->>'state'))`,
	`CREATE INDEX IF NOT EXISTS runs_updated_idx ON runs (updated_at)`,
}

func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
