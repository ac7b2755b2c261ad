package sqldb

import (
	"strings"
	"testing"

	"github.com/runweave-labs/runweave-go/rundb"
)

func TestBuildFunctionListQueryDefaultsProject(t *testing.T) {
	query, args := buildFunctionListQuery(rundb.ListFunctionsOptions{})
	if len(args) != 1 || args[0] != "default" {
		t.Fatalf("expected default project as only arg, got %v", args)
	}
	if !strings.Contains(query, "project = $1") {
		t.Fatalf("expected project predicate in query, got %s", query)
	}
}

func TestBuildFunctionListQueryWithNameAndTag(t *testing.T) {
	query, args := buildFunctionListQuery(rundb.ListFunctionsOptions{
		Project: "iris",
		Name:    "train",
		Tag:     "v2",
	})
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d: %v", len(args), args)
	}
	if !strings.Contains(query, "name = $2") {
		t.Fatalf("expected name predicate in query, got %s", query)
	}
	if !strings.Contains(query, "tag = $3") {
		t.Fatalf("expected tag predicate in query, got %s", query)
	}
}

func TestBuildFunctionListQueryLabels(t *testing.T) {
	query, args := buildFunctionListQuery(rundb.ListFunctionsOptions{Labels: []string{"team"}})
	if len(args) != 2 || args[1] != "team" {
		t.Fatalf("expected bare label arg, got %v", args)
	}
	if !strings.Contains(query, "jsonb_exists(body->'metadata'->'labels', $2)") {
		t.Fatalf("expected label predicate in query, got %s", query)
	}
}
