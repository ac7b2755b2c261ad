package sqldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/runweave-labs/runweave-go/rundb"
)

func (s *Store) StoreFunction(ctx context.Context, fn any, name, project, tag string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("function name is required")
	}
	body, err := encodeBody(fn)
	if err != nil {
		return fmt.Errorf("encode function: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO functions (project, name, tag, body, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (project, name, tag)
		 DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		orDefault(project),
		name,
		tag,
		body,
	)
	if err != nil {
		return fmt.Errorf("store function %s/%s: %w", orDefault(project), name, err)
	}
	return nil
}

func (s *Store) GetFunction(ctx context.Context, name, project, tag string) (json.RawMessage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("function name is required")
	}

	var body []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT body FROM functions WHERE project = $1 AND name = $2 AND tag = $3`,
		orDefault(project),
		name,
		tag,
	).Scan(&body)
	if err != nil {
		return nil, handleNotFound(err)
	}
	return json.RawMessage(body), nil
}

func (s *Store) ListFunctions(ctx context.Context, opts rundb.ListFunctionsOptions) (rundb.FunctionList, error) {
	query, args := buildFunctionListQuery(opts)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}
	defer rows.Close()

	out := make(rundb.FunctionList, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}
	return out, nil
}

func buildFunctionListQuery(opts rundb.ListFunctionsOptions) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	args = append(args, orDefault(opts.Project))
	clauses = append(clauses, fmt.Sprintf("project = $%d", len(args)))

	if opts.Name != "" {
		args = append(args, opts.Name)
		clauses = append(clauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if opts.Tag != "" {
		args = append(args, opts.Tag)
		clauses = append(clauses, fmt.Sprintf("tag = $%d", len(args)))
	}
	for _, label := range opts.Labels {
		clauses = append(clauses, labelClause("body->'metadata'->'labels'", label, &args))
	}

	query := "SELECT body FROM functions WHERE " + strings.Join(clauses, " AND ")
	query += " ORDER BY updated_at DESC"
	return query, args
}
