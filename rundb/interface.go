package rundb

import (
	"context"
	"encoding/json"
)

// RunDB is the operation surface shared by run database backends: the HTTP
// client in this package and the embedded Postgres backend in sqldb.
type RunDB interface {
	StoreLog(ctx context.Context, uid, project string, body []byte, appendLog bool) error
	GetLog(ctx context.Context, uid, project string, offset, size int64) (string, []byte, error)
	WatchLog(ctx context.Context, uid, project string, opts WatchLogOptions) (string, error)

	StoreRun(ctx context.Context, run any, uid, project string, iteration int) error
	UpdateRun(ctx context.Context, updates any, uid, project string, iteration int) error
	ReadRun(ctx context.Context, uid, project string, iteration int) (json.RawMessage, error)
	DelRun(ctx context.Context, uid, project string, iteration int) error
	ListRuns(ctx context.Context, opts ListRunsOptions) (RunList, error)
	DelRuns(ctx context.Context, opts DelRunsOptions) error

	StoreArtifact(ctx context.Context, key string, artifact any, uid, tag, project string) error
	ReadArtifact(ctx context.Context, key, tag, project string) ([]byte, error)
	DelArtifact(ctx context.Context, key, tag, project string) error
	ListArtifacts(ctx context.Context, opts ListArtifactsOptions) (ArtifactList, error)
	DelArtifacts(ctx context.Context, opts DelArtifactsOptions) error

	StoreFunction(ctx context.Context, fn any, name, project, tag string) error
	GetFunction(ctx context.Context, name, project, tag string) (json.RawMessage, error)
	ListFunctions(ctx context.Context, opts ListFunctionsOptions) (FunctionList, error)
}

// BuildSubmitter is the optional capability of backends that can drive the
// remote image builder. Only the HTTP client implements it; local backends
// do not build.
type BuildSubmitter interface {
	SubmitBuild(ctx context.Context, function any, withSDK bool) (BuildResult, error)
	BuilderStatus(ctx context.Context, name, project, tag string, offset int64) (BuildStatus, error)
}

var (
	_ RunDB          = (*Client)(nil)
	_ BuildSubmitter = (*Client)(nil)
)
