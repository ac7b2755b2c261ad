package rundb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Response headers carrying run state alongside log bodies.
const (
	headerFunctionStatus = "function_status"
	headerBuilderPod     = "builder_pod"
)

// StoreLog uploads log bytes for a run, appending to or replacing the
// stored log. An empty body is a no-op: nothing is sent.
func (c *Client) StoreLog(ctx context.Context, uid, project string, body []byte, appendLog bool) error {
	if len(body) == 0 {
		return nil
	}
	if strings.TrimSpace(uid) == "" {
		return errors.New("run uid is required")
	}

	params := url.Values{}
	params.Set("append", boolString(appendLog))

	_, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   pathFor(kindLog, project, uid),
		errCtx: fmt.Sprintf("store log %s/%s", orDefaultProject(project), uid),
		params: params,
		body:   body,
	})
	return err
}

// GetLog fetches the stored log slice beginning at offset. A zero size
// means "to the end". The returned state is the run's status as reported by
// the response headers, empty when the server did not attach one.
func (c *Client) GetLog(ctx context.Context, uid, project string, offset, size int64) (string, []byte, error) {
	if strings.TrimSpace(uid) == "" {
		return "", nil, errors.New("run uid is required")
	}

	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("size", strconv.FormatInt(size, 10))

	resp, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   pathFor(kindLog, project, uid),
		errCtx: fmt.Sprintf("get log %s/%s", orDefaultProject(project), uid),
		params: params,
	})
	if err != nil {
		return "", nil, err
	}
	return resp.header.Get(headerFunctionStatus), resp.body, nil
}

// WatchLog streams a run's log to opts.Out. With opts.Watch it keeps
// polling until the run leaves the in-progress states; otherwise it fetches
// once. It returns the last observed run state.
func (c *Client) WatchLog(ctx context.Context, uid, project string, opts WatchLogOptions) (string, error) {
	fetch := func(ctx context.Context, offset int64) (string, []byte, error) {
		return c.GetLog(ctx, uid, project, offset, 0)
	}
	return FollowLog(ctx, fetch, opts, c.interval)
}
