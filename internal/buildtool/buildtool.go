// Package buildtool invokes a sub-project's own release build.
package buildtool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner executes release builds. The release pipeline depends on this
// interface so tests can substitute a recording fake.
type Runner interface {
	Release(ctx context.Context, dir string) error
}

// Make runs `make release` in the project directory, matching how each
// sub-project defines its own build.
type Make struct{}

// Release invokes the project's release target. Build output is surfaced in
// the returned error on failure.
func (Make) Release(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("project directory cannot be empty")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("project directory: %w", err)
	}
	cmd := exec.CommandContext(ctx, "make", "release")
	cmd.Dir = dir
	cmd.Env = os.Environ()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("make release failed: %w: %s", err, string(output))
	}
	return nil
}
