// Package repro runs the full pipeline twice in isolated working copies
// and refuses to install unless both passes are content-identical. A
// digest mismatch means the pipeline has a hidden nondeterministic
// dependency and is always fatal.
package repro

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lineforge/weekboard/internal/digest"
	"github.com/lineforge/weekboard/internal/domain"
	"github.com/lineforge/weekboard/internal/install"
	"github.com/lineforge/weekboard/internal/pipeline"
)

// MismatchError reports divergent pass digests. Both digests are carried
// so the operator can diff the staged manifests without re-running.
type MismatchError struct {
	Pass1 string
	Pass2 string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("reproducibility failure: pass1 digest %s != pass2 digest %s", e.Pass1, e.Pass2)
}

// Harness wires the two-pass acceptance flow: clean-tree check, isolated
// worktree, two sequential orchestrator passes, digest compare, install.
type Harness struct {
	Logger     *slog.Logger
	RepoDir    string
	ScriptsDir string // relative to the repo root
	Overrides  *pipeline.StagesFile
	Runner     pipeline.Runner
	Installer  *install.Installer
	Now        func() time.Time
}

// Result reports the installed partition's manifest.
type Result struct {
	Manifest domain.Manifest
}

// AcceptWeek runs the full pipeline twice for the window and installs
// pass 1's staging tree when the pass digests match.
func (h *Harness) AcceptWeek(ctx context.Context, window domain.WeekWindow) (*Result, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := EnsureClean(ctx, h.RepoDir); err != nil {
		return nil, err
	}
	revision, err := HeadRevision(ctx, h.RepoDir)
	if err != nil {
		return nil, err
	}

	worktree, err := os.MkdirTemp("", "weekboard-worktree-*")
	if err != nil {
		return nil, fmt.Errorf("create worktree dir: %w", err)
	}
	// MkdirTemp creates the directory; git worktree add wants to create it.
	if err := os.Remove(worktree); err != nil {
		return nil, err
	}
	if err := AddWorktree(ctx, h.RepoDir, worktree, revision); err != nil {
		return nil, err
	}
	defer func() {
		if err := RemoveWorktree(context.Background(), h.RepoDir, worktree); err != nil {
			h.Logger.Warn("worktree cleanup failed", "dir", worktree, "error", err)
		}
	}()

	stages := pipeline.Stages(filepath.Join(worktree, h.ScriptsDir))
	if h.Overrides != nil {
		stages, err = h.Overrides.Apply(stages)
		if err != nil {
			return nil, err
		}
	}
	orchestrator := pipeline.New(h.Logger, h.Runner, stages)

	// The passes run strictly one after the other in separate staging
	// roots under the same isolated copy.
	type pass struct {
		name    string
		root    string
		digest  string
		outcome *pipeline.Outcome
	}
	passes := []*pass{
		{name: "pass1", root: filepath.Join(worktree, ".weekboard", "pass1")},
		{name: "pass2", root: filepath.Join(worktree, ".weekboard", "pass2")},
	}
	for _, p := range passes {
		h.Logger.Info("pass start", "pass", p.name, "week_tag", window.WeekTag, "revision", revision)
		outcome, err := orchestrator.Run(ctx, window, p.root)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		entries, err := digest.Trees(map[string]string{
			"out":     filepath.Join(p.root, "out"),
			"reports": filepath.Join(p.root, "reports"),
		})
		if err != nil {
			return nil, err
		}
		p.outcome = outcome
		p.digest = digest.Summary(entries)
		h.Logger.Info("pass digested", "pass", p.name, "digest", p.digest, "files", len(entries))
	}

	if passes[0].digest != passes[1].digest {
		h.Logger.Error("digest mismatch",
			"pass1", passes[0].digest, "pass2", passes[1].digest)
		return nil, &MismatchError{Pass1: passes[0].digest, Pass2: passes[1].digest}
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	manifest := domain.Manifest{
		Schema:    domain.ManifestSchemaV1,
		RunID:     uuid.NewString(),
		Week:      window.Week,
		Start:     window.Start,
		End:       window.End,
		Season:    window.Season,
		WeekTag:   window.WeekTag,
		Revision:  revision,
		Digest:    passes[0].digest,
		RowCounts: passes[0].outcome.RowCounts,
		CreatedAt: now().UTC(),
	}
	if err := h.Installer.Install(passes[0].root, manifest); err != nil {
		return nil, err
	}
	return &Result{Manifest: manifest}, nil
}
