package rundb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ListFunctionsOptions filter ListFunctions.
type ListFunctionsOptions struct {
	Name    string
	Project string
	Tag     string
	Labels  []string
}

// StoreFunction records a function document under (project, name, tag).
func (c *Client) StoreFunction(ctx context.Context, fn any, name, project, tag string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("function name is required")
	}
	body, err := asJSON(fn)
	if err != nil {
		return fmt.Errorf("encode function: %w", err)
	}

	params := url.Values{}
	params.Set("tag", tag)

	_, err = c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   pathFor(kindFunction, project, name),
		errCtx: fmt.Sprintf("store function %s/%s", orDefaultProject(project), name),
		params: params,
		body:   body,
	})
	return err
}

// GetFunction fetches one function document.
func (c *Client) GetFunction(ctx context.Context, name, project, tag string) (json.RawMessage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("function name is required")
	}

	params := url.Values{}
	params.Set("tag", tag)

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   pathFor(kindFunction, project, name),
		errCtx: fmt.Sprintf("get function %s/%s", orDefaultProject(project), name),
		params: params,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Func json.RawMessage `json:"func"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return nil, fmt.Errorf("decode function response: %w", err)
	}
	return envelope.Func, nil
}

// ListFunctions fetches the functions matching opts.
func (c *Client) ListFunctions(ctx context.Context, opts ListFunctionsOptions) (FunctionList, error) {
	params := url.Values{}
	params.Set("project", orDefaultProject(opts.Project))
	params.Set("name", opts.Name)
	params.Set("tag", opts.Tag)
	addLabels(params, opts.Labels)

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   "funcs",
		errCtx: "list functions",
		params: params,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Funcs FunctionList `json:"funcs"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return nil, fmt.Errorf("decode functions response: %w", err)
	}
	return envelope.Funcs, nil
}
