package rundb

import (
	"context"
	"io"
	"os"
	"time"
)

// WatchLogOptions control a WatchLog invocation. The zero value fetches the
// log once from offset 0 and returns.
type WatchLogOptions struct {
	// Watch keeps polling until the run reaches a terminal state.
	Watch bool

	// Offset is the byte position the first fetch starts from.
	Offset int64

	// Out receives new log bytes as they arrive. Defaults to os.Stdout.
	Out io.Writer
}

// LogFetch returns the current state of a watched resource and its log
// bytes starting at offset.
type LogFetch func(ctx context.Context, offset int64) (string, []byte, error)

// watchDone reports whether a state ends the watch. Anything outside the
// known in-progress states is terminal, including states this client does
// not recognize, so an upgraded server cannot strand a watcher.
func watchDone(state string) bool {
	switch state {
	case "pending", "running":
		return false
	}
	return true
}

// FollowLog drives the poll loop shared by run log watches and build
// watches. The next offset always advances by the length of the previous
// chunk, so no byte is dropped or written twice regardless of how the log
// grows between polls. It returns the last observed state.
func FollowLog(ctx context.Context, fetch LogFetch, opts WatchLogOptions, interval time.Duration) (string, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	offset := opts.Offset
	state, chunk, err := fetch(ctx, offset)
	if err != nil {
		return "", err
	}
	if len(chunk) > 0 {
		if _, err := out.Write(chunk); err != nil {
			return state, err
		}
	}
	if !opts.Watch {
		return state, nil
	}

	for !watchDone(state) {
		offset += int64(len(chunk))
		if err := sleep(ctx, interval); err != nil {
			return state, err
		}
		state, chunk, err = fetch(ctx, offset)
		if err != nil {
			return "", err
		}
		if len(chunk) > 0 {
			if _, err := out.Write(chunk); err != nil {
				return state, err
			}
		}
	}
	return state, nil
}

// sleep blocks for d or until ctx is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
