package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureIsIdempotent(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	first, err := m.Ensure("webfs")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := m.Ensure("webfs")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first != second {
		t.Fatalf("ensure not stable: %s vs %s", first, second)
	}
	info, err := os.Stat(first)
	if err != nil || !info.IsDir() {
		t.Fatalf("staging dir missing: %v", err)
	}
}

func TestClearArtifactsRemovesOnlyNamed(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	dir, err := m.Ensure("webfs")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, name := range []string{"webfs-v1.0.0.zst", "webfs-latest.zst", "keep.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("seed file %s: %v", name, err)
		}
	}

	if err := m.ClearArtifacts(dir, "webfs-v1.0.0.zst", "webfs-latest.zst", "webfs-v9.9.9.zst"); err != nil {
		t.Fatalf("clear artifacts: %v", err)
	}
	for _, name := range []string{"webfs-v1.0.0.zst", "webfs-latest.zst"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("stale artifact %s survived", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestClearArtifactsRefusesOutsideRoot(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := m.ClearArtifacts(t.TempDir(), "anything"); err == nil {
		t.Fatalf("expected guard error for path outside root")
	}
}
