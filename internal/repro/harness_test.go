package repro

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/lineforge/weekboard/internal/domain"
	"github.com/lineforge/weekboard/internal/install"
	"github.com/lineforge/weekboard/internal/pipeline"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func commitScript(t *testing.T, repo, name, body string) {
	t.Helper()
	path := filepath.Join(repo, "scripts", name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nset -e\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
}

// fixtureRepo builds a committed repository whose stage scripts produce a
// contract-clean two game week. extraScripts replace defaults by name.
func fixtureRepo(t *testing.T, extraScripts map[string]string) string {
	t.Helper()
	repo := t.TempDir()
	runGit(t, repo, "init", "-q")
	runGit(t, repo, "config", "user.email", "ci@lineforge.test")
	runGit(t, repo, "config", "user.name", "ci")
	if err := os.MkdirAll(filepath.Join(repo, "scripts"), 0o755); err != nil {
		t.Fatalf("mkdir scripts: %v", err)
	}

	commitScript(t, repo, "fetch_schedule", `
mkdir -p "$OUT_DIR/msf"
cat > "$OUT_DIR/msf/week_games.csv" <<EOF
game_id,home_abbr,away_abbr,game_date
g1,KC,BUF,$START
g2,SF,DAL,$END
EOF
`)
	commitScript(t, repo, "fetch_odds", `
mkdir -p "$OUT_DIR/odds"
cat > "$OUT_DIR/odds/week_odds.csv" <<EOF
game_id,spread_home,spread_away,total
g1,-3.5,3.5,47.5
g2,2.0,-2.0,44.0
EOF
`)
	commitScript(t, repo, "join_ratings", `
cat > "$OUT_DIR/week_with_elo.csv" <<EOF
game_id,home_abbr,away_abbr,elo_home,elo_away
g1,KC,BUF,1680,1652
g2,SF,DAL,1635,1601
EOF
`)
	commitScript(t, repo, "calibrate_probs", `
mkdir -p "$OUT_DIR/calibration"
printf '{"a": 1.02, "b": -0.11, "n_rows": 240}\n' > "$OUT_DIR/calibration/model_line_calibration.json"
`)
	commitScript(t, repo, "fetch_injuries", `
mkdir -p "$OUT_DIR/injuries"
cat > "$OUT_DIR/injuries/injury_adjustments.csv" <<EOF
game_id,elo_delta_home,elo_delta_away
g1,-12,0
g2,0,-8
EOF
`)
	commitScript(t, repo, "assemble_board", `
cat > "$OUT_DIR/model_board.csv" <<EOF
game_id,home_abbr,away_abbr,vegas_line_home,model_line_home,p_home_model,market_p_home,confidence
g1,KC,BUF,-3.5,-4.1,0.612300,0.58,0.71
g2,SF,DAL,2.0,1.4,0.451200,0.47,0.55
EOF
`)
	commitScript(t, repo, "lock_board_schema", `
printf '{"columns": ["game_id","home_abbr","away_abbr","vegas_line_home","model_line_home","p_home_model","market_p_home","confidence"]}\n' > "$OUT_DIR/board_schema.lock.json"
`)
	commitScript(t, repo, "validate_and_manifest", `
mkdir -p "$OUT_DIR/validation"
printf '{"window": {"start": "%s", "end": "%s"}, "season": "%s"}\n' "$START" "$END" "$SEASON" > "$OUT_DIR/validation/run_meta.json"
`)
	commitScript(t, repo, "render_report", `
mkdir -p "$REPORTS_DIR"
printf '<html><body>%s board</body></html>\n' "$WEEK_TAG" > "$REPORTS_DIR/week_report.html"
`)
	commitScript(t, repo, "emit_predictions", `
cat > "$OUT_DIR/predictions_week.csv" <<EOF
game_id,p_home_model
g1,0.612300
g2,0.451200
EOF
`)
	commitScript(t, repo, "verify_alignment", `
printf '{"aligned": true, "games": 2}\n' > "$OUT_DIR/validation/alignment.json"
`)
	commitScript(t, repo, "fetch_finals", `
cat > "$OUT_DIR/finals.csv" <<EOF
game_id,home_abbr,away_abbr,home_score,away_score
g1,KC,BUF,27,20
g2,SF,DAL,17,23
EOF
`)
	commitScript(t, repo, "evaluate_metrics", `
cat > "$OUT_DIR/metrics.csv" <<EOF
metric,value
logloss,0.641
brier,0.221
EOF
`)
	for name, body := range extraScripts {
		commitScript(t, repo, name, body)
	}

	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-q", "-m", "stage scripts")
	return repo
}

func fixtureWindow() domain.WeekWindow {
	return domain.WeekWindow{
		Week:           1,
		Start:          "20250904",
		End:            "20250910",
		Season:         "2025-regular",
		WeekTag:        "2025w01",
		ExpectedFinals: 2,
	}
}

func fixtureHarness(t *testing.T, repo string) (*Harness, string) {
	t.Helper()
	outRoot := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		Logger:     logger,
		RepoDir:    repo,
		ScriptsDir: "scripts",
		Runner:     pipeline.ExecRunner{},
		Installer: &install.Installer{
			Logger:      logger,
			OutRoot:     outRoot,
			ReportsRoot: t.TempDir(),
		},
		Now: func() time.Time { return time.Date(2025, 9, 11, 4, 0, 0, 0, time.UTC) },
	}
	return h, outRoot
}

func TestAcceptWeek_InstallsWhenPassesMatch(t *testing.T) {
	requireGit(t)
	repo := fixtureRepo(t, nil)
	h, outRoot := fixtureHarness(t, repo)

	result, err := h.AcceptWeek(context.Background(), fixtureWindow())
	if err != nil {
		t.Fatalf("AcceptWeek: %v", err)
	}
	if result.Manifest.Digest == "" || result.Manifest.Revision == "" {
		t.Fatalf("manifest incomplete: %+v", result.Manifest)
	}
	if result.Manifest.RowCounts["finals"] != 2 {
		t.Fatalf("finals rows=%d, want 2", result.Manifest.RowCounts["finals"])
	}
	for _, name := range []string{"model_board.csv", install.ManifestFilename, install.ChecksumsFilename} {
		if _, err := os.Stat(filepath.Join(outRoot, "2025w01", name)); err != nil {
			t.Fatalf("installed partition missing %s: %v", name, err)
		}
	}
}

func TestAcceptWeek_NondeterministicStageIsFatal(t *testing.T) {
	requireGit(t)
	repo := fixtureRepo(t, map[string]string{
		"evaluate_metrics": `
cat > "$OUT_DIR/metrics.csv" <<EOF
metric,value
logloss,0.641
built_at,$(date +%s%N)
EOF
`,
	})
	h, outRoot := fixtureHarness(t, repo)

	_, err := h.AcceptWeek(context.Background(), fixtureWindow())
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err=%v, want MismatchError", err)
	}
	if mismatch.Pass1 == mismatch.Pass2 {
		t.Fatalf("mismatch carries equal digests: %+v", mismatch)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "2025w01")); !os.IsNotExist(err) {
		t.Fatal("nothing may be installed after a digest mismatch")
	}
}

func TestAcceptWeek_RefusesUncleanTree(t *testing.T) {
	requireGit(t)
	repo := fixtureRepo(t, nil)
	if err := os.WriteFile(filepath.Join(repo, "scripts", "fetch_odds"),
		[]byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("dirty tree: %v", err)
	}
	h, _ := fixtureHarness(t, repo)

	_, err := h.AcceptWeek(context.Background(), fixtureWindow())
	var unclean *UncleanTreeError
	if !errors.As(err, &unclean) {
		t.Fatalf("err=%v, want UncleanTreeError", err)
	}
}

func TestAcceptWeek_RunsFromCommittedRevision(t *testing.T) {
	requireGit(t)
	repo := fixtureRepo(t, nil)
	h, _ := fixtureHarness(t, repo)

	result, err := h.AcceptWeek(context.Background(), fixtureWindow())
	if err != nil {
		t.Fatalf("AcceptWeek: %v", err)
	}
	head, err := HeadRevision(context.Background(), repo)
	if err != nil {
		t.Fatalf("HeadRevision: %v", err)
	}
	if result.Manifest.Revision != head {
		t.Fatalf("revision=%s, want HEAD %s", result.Manifest.Revision, head)
	}
}
