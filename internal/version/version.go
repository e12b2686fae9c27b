// Package version derives the build version identifier from git state.
package version

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Resolve returns the build version for the repository at dir, using the
// most recent tag plus commit distance as reported by git describe.
func Resolve(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("repository directory cannot be empty")
	}
	cmd := exec.CommandContext(ctx, "git", "describe", "--tags", "--always", "--dirty=-m")
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git describe failed: %w: %s", err, string(output))
	}
	v := Normalize(string(output))
	if v == "" {
		return "", fmt.Errorf("git describe returned empty version")
	}
	return v, nil
}

// Normalize converts raw git describe output into the artifact version
// segment: trimmed, any leading "v" stripped (artifact names add their own),
// and tag-distance separators flattened to dots so the result stays a single
// path-safe token.
func Normalize(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "v")
	// git describe emits <tag>-<n>-g<sha> past a tag.
	v = strings.ReplaceAll(v, "-g", ".")
	v = strings.ReplaceAll(v, "-", ".")
	return v
}
