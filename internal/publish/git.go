// Package publish commits the published dataset to a version-control
// remote. Local-only convenience: the pipeline itself never touches
// git, and a publish failure is its own exit, not a pipeline failure.
package publish

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Git runs git commands in Dir.
type Git struct {
	Dir string
}

// NewGit creates a Git helper rooted at dir ("." for the working tree).
func NewGit(dir string) *Git {
	if dir == "" {
		dir = "."
	}
	return &Git{Dir: dir}
}

// HasChanges reports whether path has uncommitted modifications.
func (g *Git) HasChanges(ctx context.Context, path string) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain", "--", path)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAndPush stages path, commits it with message, and pushes.
func (g *Git) CommitAndPush(ctx context.Context, path, message string) error {
	if _, err := g.run(ctx, "add", "--", path); err != nil {
		return err
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	if _, err := g.run(ctx, "push"); err != nil {
		return err
	}
	zap.L().Info("published dataset", zap.String("path", path))
	return nil
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "git %s: %s", strings.Join(args, " "), stderr.String())
	}
	return stdout.String(), nil
}
