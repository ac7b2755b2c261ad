package rundb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBuildSubmit wraps transport failures raised while submitting a
	// remote build.
	ErrBuildSubmit = errors.New("cannot submit build")

	// ErrBuildStatus wraps transport failures raised while fetching the
	// status of a remote build.
	ErrBuildStatus = errors.New("cannot get build status")

	// ErrBadBuildResponse reports a build endpoint answer that signals an
	// application-level rejection even though the request itself succeeded.
	ErrBadBuildResponse = errors.New("bad build response")
)

// APIError is the unified failure kind for run database calls. Connection
// errors, timeouts and non-2xx responses all surface as *APIError; it is
// never retried.
type APIError struct {
	Context    string // operation context supplied by the caller, if any
	Method     string
	URL        string
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *APIError) Error() string {
	if e.Context != "" {
		if e.Err != nil {
			return e.Context + ": " + e.Err.Error()
		}
		return e.Context
	}
	return fmt.Sprintf("%s %s, error: %v", e.Method, e.URL, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// snippet keeps response bodies readable inside error messages and logs.
func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
