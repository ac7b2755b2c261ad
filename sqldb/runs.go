package sqldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runweave-labs/runweave-go/rundb"
)

func (s *Store) StoreRun(ctx context.Context, run any, uid, project string, iteration int) error {
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}
	body, err := encodeBody(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (project, uid, iteration, body, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (project, uid, iteration)
		 DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		orDefault(project),
		uid,
		iteration,
		body,
	)
	if err != nil {
		return fmt.Errorf("store run %s/%s: %w", orDefault(project), uid, err)
	}
	return nil
}

// UpdateRun merges updates into the stored document. JSONB concatenation
// merges top-level fields; nested objects are replaced wholesale.
func (s *Store) UpdateRun(ctx context.Context, updates any, uid, project string, iteration int) error {
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}
	body, err := encodeBody(updates)
	if err != nil {
		return fmt.Errorf("encode run updates: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET body = body || $4::jsonb, updated_at = now()
		 WHERE project = $1 AND uid = $2 AND iteration = $3`,
		orDefault(project),
		uid,
		iteration,
		body,
	)
	if err != nil {
		return fmt.Errorf("update run %s/%s: %w", orDefault(project), uid, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run %s/%s: %w", orDefault(project), uid, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ReadRun(ctx context.Context, uid, project string, iteration int) (json.RawMessage, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, errors.New("run uid is required")
	}

	var body []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT body FROM runs WHERE project = $1 AND uid = $2 AND iteration = $3`,
		orDefault(project),
		uid,
		iteration,
	).Scan(&body)
	if err != nil {
		return nil, handleNotFound(err)
	}
	return json.RawMessage(body), nil
}

func (s *Store) DelRun(ctx context.Context, uid, project string, iteration int) error {
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}

	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE project = $1 AND uid = $2 AND iteration = $3`,
		orDefault(project),
		uid,
		iteration,
	)
	if err != nil {
		return fmt.Errorf("del run %s/%s: %w", orDefault(project), uid, err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, opts rundb.ListRunsOptions) (rundb.RunList, error) {
	query, args := buildRunListQuery(opts)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make(rundb.RunList, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) DelRuns(ctx context.Context, opts rundb.DelRunsOptions) error {
	query, args := buildRunDeleteQuery(opts, time.Now().UTC())
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("del runs: %w", err)
	}
	return nil
}

func buildRunListQuery(opts rundb.ListRunsOptions) (string, []any) {
	clauses := make([]string, 0, 5)
	args := make([]any, 0, 5)

	args = append(args, orDefault(opts.Project))
	clauses = append(clauses, fmt.Sprintf("project = $%d", len(args)))

	if opts.Name != "" {
		args = append(args, opts.Name)
		clauses = append(clauses, fmt.Sprintf("body->'metadata'->>'name' = $%d", len(args)))
	}
	if opts.UID != "" {
		args = append(args, opts.UID)
		clauses = append(clauses, fmt.Sprintf("uid = $%d", len(args)))
	}
	if opts.State != "" {
		args = append(args, opts.State)
		clauses = append(clauses, fmt.Sprintf("body->'status'->>'state' = $%d", len(args)))
	}
	if !opts.Iter {
		clauses = append(clauses, "iteration = 0")
	}
	for _, label := range opts.Labels {
		clauses = append(clauses, labelClause("body->'metadata'->'labels'", label, &args))
	}

	query := "SELECT body FROM runs WHERE " + strings.Join(clauses, " AND ")
	if !opts.Unsorted {
		query += " ORDER BY updated_at DESC"
	}
	return query, args
}

func buildRunDeleteQuery(opts rundb.DelRunsOptions, now time.Time) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	args = append(args, orDefault(opts.Project))
	clauses = append(clauses, fmt.Sprintf("project = $%d", len(args)))

	if opts.Name != "" {
		args = append(args, opts.Name)
		clauses = append(clauses, fmt.Sprintf("body->'metadata'->>'name' = $%d", len(args)))
	}
	if opts.State != "" {
		args = append(args, opts.State)
		clauses = append(clauses, fmt.Sprintf("body->'status'->>'state' = $%d", len(args)))
	}
	for _, label := range opts.Labels {
		clauses = append(clauses, labelClause("body->'metadata'->'labels'", label, &args))
	}
	if opts.DaysAgo > 0 {
		args = append(args, now.AddDate(0, 0, -opts.DaysAgo))
		clauses = append(clauses, fmt.Sprintf("updated_at < $%d", len(args)))
	}

	return "DELETE FROM runs WHERE " + strings.Join(clauses, " AND "), args
}

// labelClause matches either a bare "key" or a "key=value" filter against a
// JSONB labels object. jsonb_exists is used over the ? operator to keep the
// statement free of placeholder lookalikes.
func labelClause(column, label string, args *[]any) string {
	if key, value, ok := strings.Cut(label, "="); ok {
		*args = append(*args, key)
		keyIdx := len(*args)
		*args = append(*args, value)
		return fmt.Sprintf("%s->>$%d = $%d", column, keyIdx, len(*args))
	}
	*args = append(*args, label)
	return fmt.Sprintf("jsonb_exists(%s, $%d)", column, len(*args))
}
