package repro

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// UncleanTreeError reports uncommitted changes in the source tree. A run
// must be attributable to an exact revision, so acceptance refuses to
// start from a dirty tree.
type UncleanTreeError struct {
	Status string
}

func (e *UncleanTreeError) Error() string {
	return fmt.Sprintf("source tree has uncommitted changes:\n%s", e.Status)
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// EnsureClean fails when the tree at dir has uncommitted changes.
func EnsureClean(ctx context.Context, dir string) error {
	status, err := git(ctx, dir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if status != "" {
		return &UncleanTreeError{Status: status}
	}
	return nil
}

// HeadRevision returns the commit the tree at dir is checked out at.
func HeadRevision(ctx context.Context, dir string) (string, error) {
	return git(ctx, dir, "rev-parse", "HEAD")
}

// AddWorktree checks out revision into an isolated detached worktree so
// concurrent edits to the main tree cannot contaminate an in-flight run.
func AddWorktree(ctx context.Context, repoDir, worktreeDir, revision string) error {
	_, err := git(ctx, repoDir, "worktree", "add", "--detach", worktreeDir, revision)
	return err
}

// RemoveWorktree discards an isolated working copy.
func RemoveWorktree(ctx context.Context, repoDir, worktreeDir string) error {
	_, err := git(ctx, repoDir, "worktree", "remove", "--force", worktreeDir)
	return err
}
