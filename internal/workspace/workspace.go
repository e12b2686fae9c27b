// Package workspace manages the local per-project package folders that stage
// artifacts before upload.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager owns project staging directories under a common package root.
type Manager struct {
	root string
}

// New ensures the package root exists and is accessible.
func New(root string) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("package root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create package root: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the configured package root.
func (m *Manager) Root() string {
	return m.root
}

// Ensure creates the staging directory for the named project. Creation is
// idempotent; existing artifacts are left in place.
func (m *Manager) Ensure(project string) (string, error) {
	if project == "" {
		return "", fmt.Errorf("project name cannot be empty")
	}
	dir := filepath.Join(m.root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create package folder: %w", err)
	}
	return dir, nil
}

// ClearArtifacts removes the named files from a staging directory so a fresh
// run never appends to or trips over stale archives. Missing files are fine.
func (m *Manager) ClearArtifacts(dir string, names ...string) error {
	if err := m.guard(dir); err != nil {
		return err
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale artifact %s: %w", name, err)
		}
	}
	return nil
}

// guard rejects paths outside the configured package root.
func (m *Manager) guard(dir string) error {
	rel, err := filepath.Rel(m.root, dir)
	if err != nil || rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to touch path outside package root")
	}
	return nil
}
