package rundb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// BuildResult is the envelope a build submission answers with. Data carries
// the updated function document the builder produced.
type BuildResult struct {
	OK    bool            `json:"ok"`
	Ready bool            `json:"ready"`
	Data  json.RawMessage `json:"data"`

	// Raw preserves the verbatim response body.
	Raw json.RawMessage `json:"-"`
}

// BuildStatus is one builder observation: the build state and pod reported
// through response headers, plus the log bytes from the requested offset.
type BuildStatus struct {
	State string
	Pod   string
	Log   []byte
}

type buildRequest struct {
	Function json.RawMessage `json:"function"`
	WithSDK  bool            `json:"with_sdk"`
}

// SubmitBuild asks the service to build the function's container image.
// withSDK bakes the SDK into the image so the entrypoint can run under it.
func (c *Client) SubmitBuild(ctx context.Context, function any, withSDK bool) (BuildResult, error) {
	fnJSON, err := asJSON(function)
	if err != nil {
		return BuildResult{}, fmt.Errorf("encode function: %w", err)
	}

	resp, err := c.do(ctx, apiRequest{
		method:  http.MethodPost,
		path:    "build/function",
		jsonObj: buildRequest{Function: fnJSON, WithSDK: withSDK},
	})
	if err != nil {
		c.logger.Error("build submission failed", "error", err)
		return BuildResult{}, fmt.Errorf("%w: %w", ErrBuildSubmit, err)
	}

	var result BuildResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		c.logger.Error("bad build response", "body", snippet(resp.body))
		return BuildResult{}, fmt.Errorf("%w: %w", ErrBadBuildResponse, err)
	}
	if !result.OK {
		c.logger.Error("bad build response", "body", snippet(resp.body))
		return BuildResult{}, ErrBadBuildResponse
	}
	result.Raw = append(json.RawMessage(nil), resp.body...)
	return result, nil
}

// BuilderStatus fetches the state of a submitted build along with its log
// bytes from offset. A negative offset probes the state without logs.
func (c *Client) BuilderStatus(ctx context.Context, name, project, tag string, offset int64) (BuildStatus, error) {
	if strings.TrimSpace(name) == "" {
		return BuildStatus{}, errors.New("function name is required")
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("project", project)
	params.Set("tag", tag)
	params.Set("offset", strconv.FormatInt(offset, 10))

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   "build/status",
		params: params,
	})
	if err != nil {
		c.logger.Error("build status fetch failed", "error", err)
		return BuildStatus{}, fmt.Errorf("%w: %w", ErrBuildStatus, err)
	}
	if rejected, raw := buildRejection(resp); rejected {
		c.logger.Error("bad build status response", "body", snippet(raw))
		return BuildStatus{}, ErrBadBuildResponse
	}

	return BuildStatus{
		State: resp.header.Get(headerFunctionStatus),
		Pod:   resp.header.Get(headerBuilderPod),
		Log:   resp.body,
	}, nil
}

// buildRejection reports whether a 2xx build status response is an in-band
// rejection: a JSON envelope carrying ok=false instead of raw log bytes.
func buildRejection(resp *apiResponse) (bool, []byte) {
	ct := resp.header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		return false, nil
	}
	var envelope struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil || envelope.OK == nil {
		return false, nil
	}
	return !*envelope.OK, resp.body
}
