package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const testToken = "test-token-abcd"

// fakeDiscogs serves the handful of endpoints an import touches.
type fakeDiscogs struct {
	mu    sync.Mutex
	wants map[string]bool
}

func (f *fakeDiscogs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Discogs token="+testToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/oauth/identity":
		fmt.Fprint(w, `{"id": 7, "username": "digger"}`)
	case r.URL.Path == "/database/search":
		if r.URL.Query().Get("artist") != "Radiohead" {
			fmt.Fprint(w, `{"pagination": {"page": 1, "pages": 0}, "results": []}`)
			return
		}
		fmt.Fprint(w, `{"pagination": {"page": 1, "pages": 1}, "results": [
			{"id": 111, "title": "Radiohead - OK Computer", "year": "1997", "format": ["Vinyl", "LP"]},
			{"id": 222, "title": "Radiohead - OK Computer", "year": "2016", "format": ["Vinyl", "LP"]}
		]}`)
	case r.URL.Path == "/releases/333":
		fmt.Fprint(w, `{"id": 333, "title": "Kid A", "artists_sort": "Radiohead", "year": 2000, "formats": [{"name": "CD"}]}`)
	case strings.HasPrefix(r.URL.Path, "/users/digger/wants/"):
		id := strings.TrimPrefix(r.URL.Path, "/users/digger/wants/")
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodDelete {
			delete(f.wants, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		f.wants[id] = true
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id": %s}`, id)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Release not found."}`)
	}
}

type cliTestEnv struct {
	dir        string
	configPath string
	fake       *fakeDiscogs
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, k := range []string{"WS_CONFIG_PATH", "WS_DISCOGS_TOKEN", "WS_ENCRYPTION_KEY", "WS_PASSPHRASE", "WS_DB_PATH"} {
		t.Setenv(k, "")
	}

	fake := &fakeDiscogs{wants: map[string]bool{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("discogs:\n  base_url: %q\ndatabase:\n  path: %q\nimport:\n  delay: 0s\n",
		srv.URL, filepath.Join(dir, "data", "wantsync.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{dir: dir, configPath: configPath, fake: fake}
}

func (e *cliTestEnv) writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
