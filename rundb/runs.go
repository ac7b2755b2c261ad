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

	"github.com/google/uuid"
)

// NewRunUID returns a fresh run identifier: a hex UUID without dashes.
func NewRunUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ListRunsOptions filter ListRuns. The zero value lists every top-level run
// in the default project, newest first.
type ListRunsOptions struct {
	Name    string
	UID     string // restricts the listing to a single run uid when set
	Project string
	Labels  []string // label filters, either "key" or "key=value"
	State   string

	// Unsorted leaves server-side ordering off. The zero value keeps the
	// sorted default.
	Unsorted bool

	// Iter includes per-iteration child runs in the listing.
	Iter bool
}

// DelRunsOptions select the runs removed by DelRuns.
type DelRunsOptions struct {
	Name    string
	Project string
	Labels  []string
	State   string
	DaysAgo int
}

// StoreRun records a run document under (project, uid, iteration).
func (c *Client) StoreRun(ctx context.Context, run any, uid, project string, iteration int) error {
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}
	body, err := asJSON(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	params := url.Values{}
	params.Set("iter", strconv.Itoa(iteration))

	_, err = c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   pathFor(kindRun, project, uid),
		errCtx: fmt.Sprintf("store run %s/%s", orDefaultProject(project), uid),
		params: params,
		body:   body,
	})
	return err
}

// UpdateRun merges updates into the stored run document.
func (c *Client) UpdateRun(ctx context.Context, updates any, uid, project string, iteration int) error {
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}
	body, err := asJSON(updates)
	if err != nil {
		return fmt.Errorf("encode run updates: %w", err)
	}

	params := url.Values{}
	params.Set("iter", strconv.Itoa(iteration))

	_, err = c.do(ctx, apiRequest{
		method: http.MethodPatch,
		path:   pathFor(kindRun, project, uid),
		errCtx: fmt.Sprintf("update run %s/%s", orDefaultProject(project), uid),
		params: params,
		body:   body,
	})
	return err
}

// ReadRun fetches one run document.
func (c *Client) ReadRun(ctx context.Context, uid, project string, iteration int) (json.RawMessage, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, errors.New("run uid is required")
	}

	params := url.Values{}
	params.Set("iter", strconv.Itoa(iteration))

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   pathFor(kindRun, project, uid),
		errCtx: fmt.Sprintf("get run %s/%s", orDefaultProject(project), uid),
		params: params,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return nil, fmt.Errorf("decode run response: %w", err)
	}
	return envelope.Data, nil
}

// DelRun removes one run document.
func (c *Client) DelRun(ctx context.Context, uid, project string, iteration int) error {
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}

	params := url.Values{}
	params.Set("iter", strconv.Itoa(iteration))

	_, err := c.do(ctx, apiRequest{
		method: http.MethodDelete,
		path:   pathFor(kindRun, project, uid),
		errCtx: fmt.Sprintf("del run %s/%s", orDefaultProject(project), uid),
		params: params,
	})
	return err
}

// ListRuns fetches the runs matching opts.
func (c *Client) ListRuns(ctx context.Context, opts ListRunsOptions) (RunList, error) {
	params := url.Values{}
	params.Set("name", opts.Name)
	if opts.UID != "" {
		params.Set("uid", opts.UID)
	}
	params.Set("project", orDefaultProject(opts.Project))
	addLabels(params, opts.Labels)
	params.Set("state", opts.State)
	params.Set("sort", boolString(!opts.Unsorted))
	params.Set("iter", boolString(opts.Iter))

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   "runs",
		errCtx: "list runs",
		params: params,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Runs RunList `json:"runs"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return nil, fmt.Errorf("decode runs response: %w", err)
	}
	return envelope.Runs, nil
}

// DelRuns removes every run matching opts.
func (c *Client) DelRuns(ctx context.Context, opts DelRunsOptions) error {
	params := url.Values{}
	params.Set("name", opts.Name)
	params.Set("project", orDefaultProject(opts.Project))
	addLabels(params, opts.Labels)
	params.Set("state", opts.State)
	params.Set("days_ago", strconv.Itoa(opts.DaysAgo))

	_, err := c.do(ctx, apiRequest{
		method: http.MethodDelete,
		path:   "runs",
		errCtx: "del runs",
		params: params,
	})
	return err
}
