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

func (s *Store) StoreArtifact(ctx context.Context, key string, artifact any, uid, tag, project string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("artifact key is required")
	}
	if strings.TrimSpace(uid) == "" {
		return errors.New("producing run uid is required")
	}
	body, err := encodeBody(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	project = orDefault(project)
	if tag == "" {
		tag = "latest"
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (project, uid, key, body, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (project, uid, key)
		 DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		project,
		uid,
		key,
		body,
	)
	if err != nil {
		return fmt.Errorf("store artifact %s/%s/%s: %w", project, uid, key, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO artifact_tags (project, key, tag, uid)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (project, key, tag)
		 DO UPDATE SET uid = EXCLUDED.uid`,
		project,
		key,
		tag,
		uid,
	)
	if err != nil {
		return fmt.Errorf("tag artifact %s/%s/%s: %w", project, key, tag, err)
	}
	return nil
}

func (s *Store) ReadArtifact(ctx context.Context, key, tag, project string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("artifact key is required")
	}
	if tag == "" {
		tag = "latest"
	}

	var body []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT a.body FROM artifacts a
		 JOIN artifact_tags t ON t.project = a.project AND t.key = a.key AND t.uid = a.uid
		 WHERE a.project = $1 AND a.key = $2 AND t.tag = $3`,
		orDefault(project),
		key,
		tag,
	).Scan(&body)
	if err != nil {
		return nil, handleNotFound(err)
	}
	return body, nil
}

// DelArtifact drops one tag of an artifact, or the whole artifact with all
// of its tags when no tag is given.
func (s *Store) DelArtifact(ctx context.Context, key, tag, project string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("artifact key is required")
	}
	project = orDefault(project)

	if tag != "" {
		_, err := s.db.ExecContext(
			ctx,
			`DELETE FROM artifact_tags WHERE project = $1 AND key = $2 AND tag = $3`,
			project, key, tag,
		)
		if err != nil {
			return fmt.Errorf("del artifact %s/%s: %w", project, key, err)
		}
		return nil
	}

	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM artifact_tags WHERE project = $1 AND key = $2`,
		project, key,
	); err != nil {
		return fmt.Errorf("del artifact %s/%s: %w", project, key, err)
	}
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM artifacts WHERE project = $1 AND key = $2`,
		project, key,
	); err != nil {
		return fmt.Errorf("del artifact %s/%s: %w", project, key, err)
	}
	return nil
}

func (s *Store) ListArtifacts(ctx context.Context, opts rundb.ListArtifactsOptions) (rundb.ArtifactList, error) {
	query, args := buildArtifactListQuery(opts)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return rundb.ArtifactList{}, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	items := make([]json.RawMessage, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return rundb.ArtifactList{}, fmt.Errorf("scan artifact: %w", err)
		}
		items = append(items, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return rundb.ArtifactList{}, fmt.Errorf("list artifacts: %w", err)
	}
	return rundb.ArtifactList{Tag: opts.Tag, Items: items}, nil
}

func (s *Store) DelArtifacts(ctx context.Context, opts rundb.DelArtifactsOptions) error {
	query, args := buildArtifactDeleteQuery(opts, time.Now().UTC())
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("del artifacts: %w", err)
	}

	// Tag rows whose body is gone are dangling; sweep them.
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM artifact_tags t WHERE t.project = $1 AND NOT EXISTS (
			SELECT 1 FROM artifacts a
			WHERE a.project = t.project AND a.key = t.key AND a.uid = t.uid
		)`,
		orDefault(opts.Project),
	)
	if err != nil {
		return fmt.Errorf("del artifact tags: %w", err)
	}
	return nil
}

func buildArtifactListQuery(opts rundb.ListArtifactsOptions) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	args = append(args, orDefault(opts.Project))
	clauses = append(clauses, fmt.Sprintf("a.project = $%d", len(args)))

	if opts.Name != "" {
		args = append(args, opts.Name)
		clauses = append(clauses, fmt.Sprintf("a.key = $%d", len(args)))
	}
	for _, label := range opts.Labels {
		clauses = append(clauses, labelClause("a.body->'labels'", label, &args))
	}

	query := "SELECT a.body FROM artifacts a"
	if opts.Tag != "" {
		args = append(args, opts.Tag)
		query += fmt.Sprintf(
			" JOIN artifact_tags t ON t.project = a.project AND t.key = a.key AND t.uid = a.uid AND t.tag = $%d",
			len(args),
		)
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += " ORDER BY a.updated_at DESC"
	return query, args
}

func buildArtifactDeleteQuery(opts rundb.DelArtifactsOptions, now time.Time) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	args = append(args, orDefault(opts.Project))
	clauses = append(clauses, fmt.Sprintf("project = $%d", len(args)))

	if opts.Name != "" {
		args = append(args, opts.Name)
		clauses = append(clauses, fmt.Sprintf("key = $%d", len(args)))
	}
	for _, label := range opts.Labels {
		clauses = append(clauses, labelClause("body->'labels'", label, &args))
	}
	if opts.Tag != "" {
		args = append(args, opts.Tag)
		clauses = append(clauses, fmt.Sprintf(
			`uid IN (SELECT uid FROM artifact_tags WHERE project = $1 AND tag = $%d)`,
			len(args),
		))
	}
	if opts.DaysAgo > 0 {
		args = append(args, now.AddDate(0, 0, -opts.DaysAgo))
		clauses = append(clauses, fmt.Sprintf("updated_at < $%d", len(args)))
	}

	return "DELETE FROM artifacts WHERE " + strings.Join(clauses, " AND "), args
}
