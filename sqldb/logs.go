package sqldb

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/runweave-labs/runweave-go/rundb"
)

// LogStore holds raw run logs. Implementations must tolerate reads of logs
// that do not exist yet and reads past the end, returning an empty chunk.
type LogStore interface {
	Put(ctx context.Context, project, uid string, body []byte, appendLog bool) error
	Range(ctx context.Context, project, uid string, offset, size int64) ([]byte, error)
}

// ObjectLogStore keeps one object per run under <project>/<uid>.
type ObjectLogStore struct {
	client *minio.Client
	bucket string
}

func NewObjectLogStore(client *minio.Client, bucket string) (*ObjectLogStore, error) {
	if client == nil {
		return nil, errors.New("object store client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("log bucket is required")
	}
	return &ObjectLogStore{client: client, bucket: bucket}, nil
}

func logObjectName(project, uid string) string {
	return project + "/" + uid
}

func (o *ObjectLogStore) Put(ctx context.Context, project, uid string, body []byte, appendLog bool) error {
	name := logObjectName(project, uid)
	if appendLog {
		existing, err := o.Range(ctx, project, uid, 0, 0)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			body = append(existing, body...)
		}
	}

	_, err := o.client.PutObject(
		ctx,
		o.bucket,
		name,
		bytes.NewReader(body),
		int64(len(body)),
		minio.PutObjectOptions{ContentType: "text/plain"},
	)
	if err != nil {
		return fmt.Errorf("put log %s: %w", name, err)
	}
	return nil
}

func (o *ObjectLogStore) Range(ctx context.Context, project, uid string, offset, size int64) ([]byte, error) {
	name := logObjectName(project, uid)

	getOpts := minio.GetObjectOptions{}
	switch {
	case size > 0:
		if err := getOpts.SetRange(offset, offset+size-1); err != nil {
			return nil, fmt.Errorf("get log %s: %w", name, err)
		}
	case offset > 0:
		if err := getOpts.SetRange(offset, 0); err != nil {
			return nil, fmt.Errorf("get log %s: %w", name, err)
		}
	}

	obj, err := o.client.GetObject(ctx, o.bucket, name, getOpts)
	if err != nil {
		return nil, fmt.Errorf("get log %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// A missing object means no log was stored yet, and a range past
		// the end means the caller has already read everything. Both are
		// an empty chunk, not a failure.
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "InvalidRange":
			return nil, nil
		}
		return nil, fmt.Errorf("read log %s: %w", name, err)
	}
	return data, nil
}

// StoreLog uploads log bytes for a run. An empty body is a no-op.
func (s *Store) StoreLog(ctx context.Context, uid, project string, body []byte, appendLog bool) error {
	if len(body) == 0 {
		return nil
	}
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}
	return s.logs.Put(ctx, orDefault(project), uid, body, appendLog)
}

// GetLog returns the stored log slice beginning at offset along with the
// run's current state. A zero size means "to the end". The state is empty
// when no run document exists for the uid.
func (s *Store) GetLog(ctx context.Context, uid, project string, offset, size int64) (string, []byte, error) {
	if strings.TrimSpace(uid) == "" {
		return "", nil, errors.New("run uid is required")
	}
	project = orDefault(project)

	var state sql.NullString
	err := s.db.QueryRowContext(
		ctx,
		`SELECT body->'status'->>'state' FROM runs
		 WHERE project = $1 AND uid = $2 AND iteration = 0`,
		project,
		uid,
	).Scan(&state)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("get log %s/%s: %w", project, uid, err)
	}

	data, err := s.logs.Range(ctx, project, uid, offset, size)
	if err != nil {
		return "", nil, err
	}
	return state.String, data, nil
}

// WatchLog streams a run's log to opts.Out, polling until the run leaves
// the in-progress states when opts.Watch is set.
func (s *Store) WatchLog(ctx context.Context, uid, project string, opts rundb.WatchLogOptions) (string, error) {
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		return s.GetLog(ctx, uid, project, offset, 0)
	}
	return rundb.FollowLog(ctx, fetch, opts, s.interval)
}
