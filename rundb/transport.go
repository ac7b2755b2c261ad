package rundb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// apiRequest describes one dispatch through the client. Every operation
// issues exactly one request per invocation; there are no retries.
type apiRequest struct {
	method  string
	path    string
	errCtx  string // operation context used in failure messages
	params  url.Values
	body    []byte // raw payload, sent verbatim
	jsonObj any    // JSON payload, encoded and content-typed by do
	timeout time.Duration
}

// apiResponse is a fully drained response. Bodies are small (documents and
// log slices), so buffering them keeps callers free of stream handling.
type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, req apiRequest) (*apiResponse, error) {
	u := c.baseURL + "/api/" + req.path
	if len(req.params) > 0 {
		u += "?" + req.params.Encode()
	}

	fail := func(status int, err error) *APIError {
		return &APIError{
			Context:    req.errCtx,
			Method:     req.method,
			URL:        u,
			StatusCode: status,
			Err:        err,
		}
	}

	timeout := req.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var payload io.Reader
	if req.jsonObj != nil {
		data, err := json.Marshal(req.jsonObj)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else if len(req.body) > 0 {
		payload = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, payload)
	if err != nil {
		return nil, fail(0, err)
	}
	if req.jsonObj != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if err := c.creds.apply(httpReq); err != nil {
		return nil, fail(0, err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected status %s: %s", resp.Status, snippet(body)))
	}
	return &apiResponse{status: resp.StatusCode, header: resp.Header, body: body}, nil
}
