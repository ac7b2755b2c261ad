package runtimes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/runweave-labs/runweave-go/rundb"
)

// buildDB fakes a backend with build capability. The embedded interface
// covers the RunDB surface these tests never touch.
type buildDB struct {
	rundb.RunDB
	submit func(ctx context.Context, function any, withSDK bool) (rundb.BuildResult, error)
	status func(ctx context.Context, name, project, tag string, offset int64) (rundb.BuildStatus, error)
}

func (b *buildDB) SubmitBuild(ctx context.Context, function any, withSDK bool) (rundb.BuildResult, error) {
	return b.submit(ctx, function, withSDK)
}

func (b *buildDB) BuilderStatus(ctx context.Context, name, project, tag string, offset int64) (rundb.BuildStatus, error) {
	return b.status(ctx, name, project, tag, offset)
}

// plainDB fakes a backend without build capability.
type plainDB struct {
	rundb.RunDB
}

func quietOptions() DeployOptions {
	return DeployOptions{Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func TestDeploy_RequiresBuildCapability(t *testing.T) {
	fn := &Function{Metadata: Metadata{Name: "trainer"}}
	_, err := Deploy(context.Background(), &plainDB{}, fn, quietOptions())
	if !errors.Is(err, ErrRemoteBuilderRequired) {
		t.Fatalf("err=%v, want ErrRemoteBuilderRequired", err)
	}
}

func TestDeploy_AssignsDefaultImageAndSubmits(t *testing.T) {
	db := &buildDB{
		submit: func(_ context.Context, function any, withSDK bool) (rundb.BuildResult, error) {
			got, ok := function.(*Function)
			if !ok {
				t.Errorf("function type=%T, want *Function", function)
				return rundb.BuildResult{}, errors.New("bad type")
			}
			if got.Spec.Build.Image != ".runweave/func-iris-trainer:latest" {
				t.Errorf("build image=%q, want the default name", got.Spec.Build.Image)
			}
			if !withSDK {
				t.Errorf("withSDK=false, want true")
			}
			return rundb.BuildResult{
				OK:   true,
				Data: json.RawMessage(`{"status":{"state":"pending","build_pod":"pod-1"},"spec":{"image":"registry/iris:1"}}`),
			}, nil
		},
	}

	fn := &Function{Metadata: Metadata{Name: "trainer", Project: "iris"}}
	opts := quietOptions()
	opts.WithSDK = true
	ready, err := Deploy(context.Background(), db, fn, opts)
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if ready {
		t.Fatalf("ready=true, want false without watch")
	}
	if fn.Status.State != "pending" {
		t.Fatalf("state=%q, want pending", fn.Status.State)
	}
	if fn.Status.BuildPod != "pod-1" {
		t.Fatalf("build pod=%q, want pod-1", fn.Status.BuildPod)
	}
	if fn.Spec.Image != "registry/iris:1" {
		t.Fatalf("image=%q, want registry/iris:1", fn.Spec.Image)
	}
}

func TestDeploy_KeepsExplicitBuildImage(t *testing.T) {
	db := &buildDB{
		submit: func(_ context.Context, function any, _ bool) (rundb.BuildResult, error) {
			got := function.(*Function)
			if got.Spec.Build.Image != "registry/custom:2" {
				t.Errorf("build image=%q, want registry/custom:2", got.Spec.Build.Image)
			}
			return rundb.BuildResult{OK: true, Ready: true}, nil
		},
	}

	fn := &Function{Metadata: Metadata{Name: "trainer"}}
	fn.Spec.Build.Image = "registry/custom:2"
	ready, err := Deploy(context.Background(), db, fn, quietOptions())
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if !ready {
		t.Fatalf("ready=false, want the submission's ready flag")
	}
}

func TestDeploy_WatchFollowsBuildToReady(t *testing.T) {
	var polls int
	db := &buildDB{
		submit: func(context.Context, any, bool) (rundb.BuildResult, error) {
			return rundb.BuildResult{
				OK:   true,
				Data: json.RawMessage(`{"status":{"state":"running"}}`),
			}, nil
		},
		status: func(_ context.Context, name, project, tag string, offset int64) (rundb.BuildStatus, error) {
			polls++
			if polls == 1 {
				return rundb.BuildStatus{State: "running", Log: []byte("building\n")}, nil
			}
			return rundb.BuildStatus{State: ReadyState, Pod: "pod-2"}, nil
		},
	}

	fn := &Function{Metadata: Metadata{Name: "trainer", Project: "iris"}}
	var out bytes.Buffer
	opts := quietOptions()
	opts.Watch = true
	opts.Out = &out
	opts.WatchInterval = time.Millisecond

	ready, err := Deploy(context.Background(), db, fn, opts)
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if !ready {
		t.Fatalf("ready=false, want true after a ready build")
	}
	if fn.Status.State != ReadyState {
		t.Fatalf("state=%q, want ready", fn.Status.State)
	}
	if fn.Status.BuildPod != "pod-2" {
		t.Fatalf("build pod=%q, want pod-2", fn.Status.BuildPod)
	}
	if out.String() != "building\n" {
		t.Fatalf("out=%q, want the streamed log", out.String())
	}
	if polls != 2 {
		t.Fatalf("polls=%d, want 2", polls)
	}
}

func TestDeploy_SkipDeployedShortCircuits(t *testing.T) {
	db := &buildDB{
		submit: func(context.Context, any, bool) (rundb.BuildResult, error) {
			t.Errorf("submit should not be called")
			return rundb.BuildResult{}, errors.New("unexpected")
		},
	}

	fn := &Function{Metadata: Metadata{Name: "trainer"}}
	fn.Spec.Image = "img:cached"
	opts := quietOptions()
	opts.SkipDeployed = true

	ready, err := Deploy(context.Background(), db, fn, opts)
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if !ready {
		t.Fatalf("ready=false, want true for an already deployed function")
	}
	if fn.Status.State != ReadyState {
		t.Fatalf("state=%q, want ready", fn.Status.State)
	}
}

func TestIsDeployed_ProbesBuilderStatus(t *testing.T) {
	db := &buildDB{
		status: func(_ context.Context, name, project, tag string, offset int64) (rundb.BuildStatus, error) {
			if offset != -1 {
				t.Errorf("offset=%d, want -1 for a probe", offset)
			}
			return rundb.BuildStatus{State: ReadyState}, nil
		},
	}

	fn := &Function{Metadata: Metadata{Name: "trainer"}}
	if !IsDeployed(context.Background(), db, fn) {
		t.Fatalf("IsDeployed=false, want true")
	}
	if fn.Status.State != ReadyState {
		t.Fatalf("state=%q, want ready after the probe", fn.Status.State)
	}
}

func TestIsDeployed_FalseWhenProbeFails(t *testing.T) {
	db := &buildDB{
		status: func(context.Context, string, string, string, int64) (rundb.BuildStatus, error) {
			return rundb.BuildStatus{}, errors.New("unreachable")
		},
	}

	fn := &Function{Metadata: Metadata{Name: "trainer"}}
	if IsDeployed(context.Background(), db, fn) {
		t.Fatalf("IsDeployed=true, want false when the probe fails")
	}
}
