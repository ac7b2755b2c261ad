package rundb

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func TestFollowLog_StreamsUntilTerminalState(t *testing.T) {
	steps := []struct {
		state string
		chunk string
	}{
		{"running", "AB"},
		{"running", "CD"},
		{"completed", ""},
	}
	var offsets []int64
	var call int
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		offsets = append(offsets, offset)
		step := steps[call]
		call++
		return step.state, []byte(step.chunk), nil
	}

	var out bytes.Buffer
	state, err := FollowLog(context.Background(), fetch, WatchLogOptions{Watch: true, Out: &out}, time.Millisecond)
	if err != nil {
		t.Fatalf("FollowLog: %v", err)
	}
	if state != "completed" {
		t.Fatalf("state=%q, want completed", state)
	}
	if out.String() != "ABCD" {
		t.Fatalf("out=%q, want ABCD", out.String())
	}
	want := []int64{0, 2, 4}
	if len(offsets) != len(want) {
		t.Fatalf("fetches=%d, want %d", len(offsets), len(want))
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Fatalf("offset[%d]=%d, want %d", i, offsets[i], want[i])
		}
	}
}

func TestFollowLog_SingleFetchWithoutWatch(t *testing.T) {
	var calls int
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		calls++
		return "running", []byte("partial"), nil
	}

	var out bytes.Buffer
	state, err := FollowLog(context.Background(), fetch, WatchLogOptions{Out: &out}, time.Millisecond)
	if err != nil {
		t.Fatalf("FollowLog: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetches=%d, want 1", calls)
	}
	if state != "running" {
		t.Fatalf("state=%q, want running", state)
	}
	if out.String() != "partial" {
		t.Fatalf("out=%q, want partial", out.String())
	}
}

func TestFollowLog_UnknownStateIsTerminal(t *testing.T) {
	var calls int
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		calls++
		return "archived", []byte("x"), nil
	}

	var out bytes.Buffer
	state, err := FollowLog(context.Background(), fetch, WatchLogOptions{Watch: true, Out: &out}, time.Millisecond)
	if err != nil {
		t.Fatalf("FollowLog: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetches=%d, want 1", calls)
	}
	if state != "archived" {
		t.Fatalf("state=%q, want archived", state)
	}
}

func TestFollowLog_MissingStateIsTerminal(t *testing.T) {
	var calls int
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		calls++
		return "", []byte("x"), nil
	}

	var out bytes.Buffer
	if _, err := FollowLog(context.Background(), fetch, WatchLogOptions{Watch: true, Out: &out}, time.Millisecond); err != nil {
		t.Fatalf("FollowLog: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetches=%d, want 1", calls)
	}
}

func TestFollowLog_StartsFromRequestedOffset(t *testing.T) {
	var first int64 = -1
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		if first == -1 {
			first = offset
		}
		return "completed", nil, nil
	}

	var out bytes.Buffer
	if _, err := FollowLog(context.Background(), fetch, WatchLogOptions{Offset: 42, Out: &out}, time.Millisecond); err != nil {
		t.Fatalf("FollowLog: %v", err)
	}
	if first != 42 {
		t.Fatalf("first offset=%d, want 42", first)
	}
}

func TestFollowLog_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		calls++
		cancel()
		return "running", []byte("x"), nil
	}

	var out bytes.Buffer
	_, err := FollowLog(ctx, fetch, WatchLogOptions{Watch: true, Out: &out}, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("fetches=%d, want 1", calls)
	}
}

func TestFollowLog_PropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		calls++
		if calls == 2 {
			return "", nil, boom
		}
		return "running", []byte("x"), nil
	}

	var out bytes.Buffer
	_, err := FollowLog(context.Background(), fetch, WatchLogOptions{Watch: true, Out: &out}, time.Millisecond)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
}

func TestWatchLog_PollsServerUntilDone(t *testing.T) {
	responses := []struct {
		state string
		body  string
	}{
		{"pending", ""},
		{"running", "starting\n"},
		{"completed", "done\n"},
	}
	var offsets []string
	var call int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		resp := responses[call]
		call++
		w.Header().Set("function_status", resp.state)
		w.Write([]byte(resp.body))
	}))

	var out bytes.Buffer
	state, err := c.WatchLog(context.Background(), "u1", "iris", WatchLogOptions{Watch: true, Out: &out})
	if err != nil {
		t.Fatalf("WatchLog: %v", err)
	}
	if state != "completed" {
		t.Fatalf("state=%q, want completed", state)
	}
	if out.String() != "starting\ndone\n" {
		t.Fatalf("out=%q, want the concatenated chunks", out.String())
	}

	want := []string{"0", "0", strconv.Itoa(len("starting\n"))}
	if len(offsets) != len(want) {
		t.Fatalf("polls=%d, want %d", len(offsets), len(want))
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Fatalf("offset[%d]=%q, want %q", i, offsets[i], want[i])
		}
	}
}
