package devserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportProfileDefault(t *testing.T) {
	t.Setenv("ENV_PROFILE", "")
	t.Setenv("TRUNK_ENV_PROFILE", "")

	profile, err := ExportProfile("")
	if err != nil {
		t.Fatalf("export profile: %v", err)
	}
	if profile != ".env.local" {
		t.Fatalf("unexpected resolved profile: %s", profile)
	}
	for _, name := range ProfileVars {
		if got := os.Getenv(name); got != ".env.local" {
			t.Fatalf("%s: got %q want %q", name, got, ".env.local")
		}
	}
}

func TestExportProfileExplicit(t *testing.T) {
	t.Setenv("ENV_PROFILE", "")
	t.Setenv("TRUNK_ENV_PROFILE", "")

	if _, err := ExportProfile(".env.staging"); err != nil {
		t.Fatalf("export profile: %v", err)
	}
	for _, name := range ProfileVars {
		if got := os.Getenv(name); got != ".env.staging" {
			t.Fatalf("%s: got %q want %q", name, got, ".env.staging")
		}
	}
}

func TestServerServesDist(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dev</html>"), 0o644); err != nil {
		t.Fatalf("seed dist: %v", err)
	}

	srv, err := New(discardLogger(), dir)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "<html>dev</html>" {
		t.Fatalf("unexpected body: %s", body)
	}

	missing, err := http.Get(ts.URL + "/nope.js")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing asset, got %d", missing.StatusCode)
	}
}

func TestServerExposesMetrics(t *testing.T) {
	dir := t.TempDir()
	srv, err := New(discardLogger(), dir)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected metrics status: %d", resp.StatusCode)
	}
}

func TestServerRejectsMissingDir(t *testing.T) {
	if _, err := New(discardLogger(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing dist directory")
	}
}
