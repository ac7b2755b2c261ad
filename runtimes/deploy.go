package runtimes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/runweave-labs/runweave-go/rundb"
)

// ErrRemoteBuilderRequired reports a deploy against a backend that cannot
// submit builds, such as the embedded Postgres backend.
var ErrRemoteBuilderRequired = errors.New("run database does not support remote builds")

// ReadyState is the build state of a function whose image is usable.
const ReadyState = "ready"

// DeployOptions control Deploy.
type DeployOptions struct {
	// Watch follows the build log until the build finishes.
	Watch bool

	// WithSDK bakes the SDK into the image.
	WithSDK bool

	// SkipDeployed returns early when the function already has an image
	// or a ready build.
	SkipDeployed bool

	// Out receives build logs while watching. Defaults to os.Stdout.
	Out io.Writer

	// Logger receives deploy progress. Defaults to slog.Default.
	Logger *slog.Logger

	// WatchInterval overrides the poll pause, mainly for tests.
	WatchInterval time.Duration
}

// buildData is the slice of the build envelope read back into the function.
type buildData struct {
	Status struct {
		State    string `json:"state"`
		BuildPod string `json:"build_pod"`
	} `json:"status"`
	Spec struct {
		Image string `json:"image"`
	} `json:"spec"`
}

// Deploy submits the function's image build and optionally follows it to
// completion, updating the function's spec and status from the builder's
// responses. It reports whether the function ended up ready.
func Deploy(ctx context.Context, db rundb.RunDB, fn *Function, opts DeployOptions) (bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.SkipDeployed && IsDeployed(ctx, db, fn) {
		fn.Status.State = ReadyState
		return true, nil
	}

	builder, ok := db.(rundb.BuildSubmitter)
	if !ok {
		return false, ErrRemoteBuilderRequired
	}

	if fn.Spec.Build.Image == "" {
		fn.Spec.Build.Image = DefaultImageName(fn)
	}
	// Drop stale results so the new build's outcome is unambiguous.
	fn.Spec.Image = ""
	fn.Status.State = ""

	logger.Info("starting remote build", "image", fn.Spec.Build.Image)
	result, err := builder.SubmitBuild(ctx, fn, opts.WithSDK)
	if err != nil {
		return false, err
	}

	if len(result.Data) > 0 {
		var data buildData
		if err := json.Unmarshal(result.Data, &data); err != nil {
			return false, fmt.Errorf("decode build data: %w", err)
		}
		fn.Status.State = data.Status.State
		fn.Status.BuildPod = data.Status.BuildPod
		fn.Spec.Image = data.Spec.Image
	}

	ready := result.Ready
	if opts.Watch {
		state, err := WatchBuild(ctx, builder, fn, opts.Out, opts.WatchInterval)
		if err != nil {
			return false, err
		}
		ready = state == ReadyState
	}
	return ready, nil
}

// WatchBuild follows the builder log until the build leaves the in-progress
// states, writing new bytes to out. The function's status tracks every
// observation; the final build state is returned.
func WatchBuild(ctx context.Context, builder rundb.BuildSubmitter, fn *Function, out io.Writer, interval time.Duration) (string, error) {
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		status, err := builder.BuilderStatus(ctx, fn.Metadata.Name, fn.Metadata.Project, fn.Metadata.Tag, offset)
		if err != nil {
			return "", nil, err
		}
		if status.Pod != "" {
			fn.Status.BuildPod = status.Pod
		}
		return status.State, status.Log, nil
	}

	state, err := rundb.FollowLog(ctx, fetch, rundb.WatchLogOptions{Watch: true, Out: out}, interval)
	if err != nil {
		return "", err
	}
	fn.Status.State = state
	return state, nil
}

// IsDeployed reports whether the function already has a built image or a
// ready build. When the backend exposes builder status, the probe refreshes
// the cached state first; probe failures leave it untouched.
func IsDeployed(ctx context.Context, db rundb.RunDB, fn *Function) bool {
	if fn.Spec.Image != "" {
		return true
	}
	if builder, ok := db.(rundb.BuildSubmitter); ok {
		status, err := builder.BuilderStatus(ctx, fn.Metadata.Name, fn.Metadata.Project, fn.Metadata.Tag, -1)
		if err == nil && status.State != "" {
			fn.Status.State = status.State
		}
	}
	return fn.Status.State == ReadyState
}
