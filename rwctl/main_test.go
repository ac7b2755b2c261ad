package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		flagURL = ""
		flagUser = ""
		flagPass = ""
		flagToken = ""
		flagTimeout = 0
		project = ""
		localMode = false
	})
}

func TestClientConfigFlagBeatsFileBeatsEnv(t *testing.T) {
	resetGlobals(t)
	t.Setenv("RUNWEAVE_URL", "http://env.example:8080")
	t.Setenv("RUNWEAVE_USER", "env-user")
	t.Setenv("RUNWEAVE_PASSWORD", "env-pass")

	configPath = writeTempFile(t, "rwctl.yaml", "url: http://file.example:8080\nuser: file-user\n")
	flagURL = "http://flag.example:8080"

	cfg, err := clientConfig()
	if err != nil {
		t.Fatalf("clientConfig failed: %v", err)
	}
	if cfg.BaseURL != "http://flag.example:8080" {
		t.Fatalf("expected flag url to win, got %s", cfg.BaseURL)
	}
	if cfg.User != "file-user" {
		t.Fatalf("expected file user to beat env, got %s", cfg.User)
	}
	if cfg.Password != "env-pass" {
		t.Fatalf("expected env password to survive, got %s", cfg.Password)
	}
}

func TestClientConfigBadFile(t *testing.T) {
	resetGlobals(t)
	configPath = writeTempFile(t, "rwctl.yaml", "url: [broken\n")
	if _, err := clientConfig(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}

func TestRunGetHitsRunPath(t *testing.T) {
	resetGlobals(t)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": {"metadata": {"uid": "abc123"}}}`))
	}))
	t.Cleanup(srv.Close)

	flagURL = srv.URL
	if err := runGet(runGetCmd, []string{"abc123"}); err != nil {
		t.Fatalf("runGet failed: %v", err)
	}
	if gotPath != "/api/run/default/abc123" {
		t.Fatalf("expected run path, got %s", gotPath)
	}
}

func TestRunLogsWritesState(t *testing.T) {
	resetGlobals(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("function_status", "completed")
		w.Write([]byte("done\n"))
	}))
	t.Cleanup(srv.Close)

	flagURL = srv.URL
	if err := runLogs(logsCmd, []string{"abc123"}); err != nil {
		t.Fatalf("runLogs failed: %v", err)
	}
}

func TestBuildStatusPrintsState(t *testing.T) {
	resetGlobals(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/api/build/status" {
			t.Errorf("path = %q, want /api/build/status", got)
		}
		w.Header().Set("function_status", "ready")
	}))
	t.Cleanup(srv.Close)

	flagURL = srv.URL
	if err := buildStatus(buildStatusCmd, []string{"trainer"}); err != nil {
		t.Fatalf("buildStatus failed: %v", err)
	}
}
