package rundb

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
)

func TestStoreFunction_SendsTagAndBody(t *testing.T) {
	var method, path, tag string
	var body []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		tag = r.URL.Query().Get("tag")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	fn := map[string]any{"kind": "job"}
	if err := c.StoreFunction(context.Background(), fn, "trainer", "", "v1"); err != nil {
		t.Fatalf("StoreFunction: %v", err)
	}
	if method != http.MethodPost {
		t.Fatalf("method=%q, want POST", method)
	}
	if path != "/api/func/default/trainer" {
		t.Fatalf("path=%q, want /api/func/default/trainer", path)
	}
	if tag != "v1" {
		t.Fatalf("tag=%q, want v1", tag)
	}
	if string(body) != `{"kind":"job"}` {
		t.Fatalf("body=%q, want the encoded function", body)
	}
}

func TestGetFunction_UnwrapsFuncEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"func":{"kind":"job"}}`))
	}))

	fn, err := c.GetFunction(context.Background(), "trainer", "iris", "")
	if err != nil {
		t.Fatalf("GetFunction: %v", err)
	}
	if string(fn) != `{"kind":"job"}` {
		t.Fatalf("func=%q, want the func field", fn)
	}
}

func TestGetFunction_RequiresName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if _, err := c.GetFunction(context.Background(), "", "", ""); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestListFunctions_EncodesFilters(t *testing.T) {
	var path string
	var query url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.Query()
		w.Write([]byte(`{"funcs":[{"kind":"job"}]}`))
	}))

	funcs, err := c.ListFunctions(context.Background(), ListFunctionsOptions{
		Name:   "trainer",
		Tag:    "v1",
		Labels: []string{"team=ml"},
	})
	if err != nil {
		t.Fatalf("ListFunctions: %v", err)
	}
	if path != "/api/funcs" {
		t.Fatalf("path=%q, want /api/funcs", path)
	}
	if len(funcs) != 1 {
		t.Fatalf("funcs=%d, want 1", len(funcs))
	}
	if got := query.Get("project"); got != "default" {
		t.Fatalf("project=%q, want default", got)
	}
	if got := query.Get("name"); got != "trainer" {
		t.Fatalf("name=%q, want trainer", got)
	}
	if got := query.Get("tag"); got != "v1" {
		t.Fatalf("tag=%q, want v1", got)
	}
}
