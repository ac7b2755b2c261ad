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

// ListArtifactsOptions filter ListArtifacts.
type ListArtifactsOptions struct {
	Name    string
	Project string
	Tag     string
	Labels  []string
}

// DelArtifactsOptions select the artifacts removed by DelArtifacts.
type DelArtifactsOptions struct {
	Name    string
	Project string
	Tag     string
	Labels  []string
	DaysAgo int
}

// StoreArtifact records an artifact document under the producing run's uid,
// optionally tagging it.
func (c *Client) StoreArtifact(ctx context.Context, key string, artifact any, uid, tag, project string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("artifact key is required")
	}
	if strings.TrimSpace(uid) == "" {
		return errors.New("producing run uid is required")
	}
	body, err := asJSON(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	params := url.Values{}
	params.Set("tag", tag)

	_, err = c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   pathFor(kindArtifact, project, uid) + "/" + key,
		errCtx: fmt.Sprintf("store artifact %s/%s/%s", orDefaultProject(project), uid, key),
		params: params,
		body:   body,
	})
	return err
}

// ReadArtifact fetches one artifact document as raw bytes, addressed by tag
// rather than by producing run. An empty tag reads "latest".
func (c *Client) ReadArtifact(ctx context.Context, key, tag, project string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("artifact key is required")
	}
	if tag == "" {
		tag = "latest"
	}

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   pathFor(kindArtifact, project, tag) + "/" + key,
		errCtx: fmt.Sprintf("read artifact %s/%s", orDefaultProject(project), key),
	})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// DelArtifact removes one artifact. The key rides in the identifier slot of
// the path as well as the parameters; the server resolves the tag from the
// latter.
func (c *Client) DelArtifact(ctx context.Context, key, tag, project string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("artifact key is required")
	}

	params := url.Values{}
	params.Set("key", key)
	params.Set("tag", tag)

	_, err := c.do(ctx, apiRequest{
		method: http.MethodDelete,
		path:   pathFor(kindArtifact, project, key),
		errCtx: fmt.Sprintf("del artifact %s/%s", orDefaultProject(project), key),
		params: params,
	})
	return err
}

// ListArtifacts fetches the artifacts matching opts. The requested tag is
// recorded on the returned list even when nothing matched.
func (c *Client) ListArtifacts(ctx context.Context, opts ListArtifactsOptions) (ArtifactList, error) {
	params := url.Values{}
	params.Set("name", opts.Name)
	params.Set("project", orDefaultProject(opts.Project))
	params.Set("tag", opts.Tag)
	addLabels(params, opts.Labels)

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   "artifacts",
		errCtx: "list artifacts",
		params: params,
	})
	if err != nil {
		return ArtifactList{}, err
	}

	var envelope struct {
		Artifacts []json.RawMessage `json:"artifacts"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return ArtifactList{}, fmt.Errorf("decode artifacts response: %w", err)
	}
	return ArtifactList{Tag: opts.Tag, Items: envelope.Artifacts}, nil
}

// DelArtifacts removes every artifact matching opts.
func (c *Client) DelArtifacts(ctx context.Context, opts DelArtifactsOptions) error {
	params := url.Values{}
	params.Set("name", opts.Name)
	params.Set("project", orDefaultProject(opts.Project))
	params.Set("tag", opts.Tag)
	addLabels(params, opts.Labels)
	params.Set("days_ago", strconv.Itoa(opts.DaysAgo))

	_, err := c.do(ctx, apiRequest{
		method: http.MethodDelete,
		path:   "artifacts",
		errCtx: "del artifacts",
		params: params,
	})
	return err
}
