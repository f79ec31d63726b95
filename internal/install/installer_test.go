package install

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lineforge/weekboard/internal/digest"
	"github.com/lineforge/weekboard/internal/domain"
)

func testInstaller(t *testing.T) (*Installer, string, string) {
	t.Helper()
	outRoot := t.TempDir()
	reportsRoot := t.TempDir()
	i := &Installer{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		OutRoot:     outRoot,
		ReportsRoot: reportsRoot,
	}
	return i, outRoot, reportsRoot
}

func testManifest() domain.Manifest {
	return domain.Manifest{
		Schema:    domain.ManifestSchemaV1,
		RunID:     "11111111-2222-3333-4444-555555555555",
		Week:      1,
		Start:     "20250904",
		End:       "20250910",
		Season:    "2025-regular",
		WeekTag:   "2025w01",
		Revision:  "deadbeefcafe",
		Digest:    "abc123",
		RowCounts: map[string]int{"model_board": 2},
		CreatedAt: time.Date(2025, 9, 11, 4, 0, 0, 0, time.UTC),
	}
}

func stage(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func TestInstall_WritesPartitionAndManifest(t *testing.T) {
	installer, outRoot, reportsRoot := testInstaller(t)
	staging := stage(t, map[string]string{
		"out/model_board.csv":      "game_id\ng1\ng2\n",
		"reports/week_report.html": "<html></html>",
	})

	if err := installer.Install(staging, testManifest()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	board := filepath.Join(outRoot, "2025w01", "model_board.csv")
	if _, err := os.Stat(board); err != nil {
		t.Fatalf("board missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(reportsRoot, "2025w01", "week_report.html")); err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "2025w01", ChecksumsFilename)); err != nil {
		t.Fatalf("checksums missing: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(outRoot, "2025w01", ManifestFilename))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	var m domain.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest decode: %v", err)
	}
	if m.Schema != domain.ManifestSchemaV1 || m.WeekTag != "2025w01" {
		t.Fatalf("manifest=%+v", m)
	}
}

func TestInstall_DereferencesSymlinks(t *testing.T) {
	installer, outRoot, _ := testInstaller(t)

	shared := filepath.Join(t.TempDir(), "baseline.csv")
	if err := os.WriteFile(shared, []byte("team,rating\nKC,1680\n"), 0o644); err != nil {
		t.Fatalf("write shared: %v", err)
	}
	staging := stage(t, map[string]string{
		"out/model_board.csv":      "game_id\ng1\n",
		"reports/week_report.html": "<html></html>",
	})
	link := filepath.Join(staging, "out", "ratings.csv")
	if err := os.Symlink(shared, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := installer.Install(staging, testManifest()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	installed := filepath.Join(outRoot, "2025w01", "ratings.csv")
	info, err := os.Lstat(installed)
	if err != nil {
		t.Fatalf("lstat installed copy: %v", err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		t.Fatal("installed copy is still a symlink")
	}
	raw, err := os.ReadFile(installed)
	if err != nil || string(raw) != "team,rating\nKC,1680\n" {
		t.Fatalf("installed content=%q err=%v", raw, err)
	}

	// Repointing the shared source must not affect the frozen week.
	if err := os.WriteFile(shared, []byte("mutated"), 0o644); err != nil {
		t.Fatalf("mutate shared: %v", err)
	}
	raw, _ = os.ReadFile(installed)
	if string(raw) == "mutated" {
		t.Fatal("frozen partition reads through a live pointer")
	}
}

func TestInstall_NoSymlinksSurviveScan(t *testing.T) {
	installer, outRoot, reportsRoot := testInstaller(t)
	staging := stage(t, map[string]string{
		"out/a/nested.csv":         "x\n1\n",
		"out/model_board.csv":      "game_id\ng1\n",
		"reports/week_report.html": "<html></html>",
	})
	if err := os.Symlink(filepath.Join(staging, "out/model_board.csv"),
		filepath.Join(staging, "out/a/alias.csv")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := installer.Install(staging, testManifest()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	for _, root := range []string{outRoot, reportsRoot} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type()&fs.ModeSymlink != 0 {
				t.Fatalf("symlink survived installation: %s", path)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
	}
}

func TestInstall_IdempotentPerWeekTag(t *testing.T) {
	installer, outRoot, _ := testInstaller(t)
	staging := stage(t, map[string]string{
		"out/model_board.csv":      "game_id\ng1\n",
		"reports/week_report.html": "<html></html>",
	})

	if err := installer.Install(staging, testManifest()); err != nil {
		t.Fatalf("first install: %v", err)
	}
	// A stale file from a previous layout must not survive a reinstall.
	stale := filepath.Join(outRoot, "2025w01", "stale.csv")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	first, err := digest.Tree(filepath.Join(outRoot, "2025w01"))
	if err != nil {
		t.Fatalf("digest first: %v", err)
	}

	if err := installer.Install(staging, testManifest()); err != nil {
		t.Fatalf("second install: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("reinstall did not replace the partition")
	}
	second, err := digest.Tree(filepath.Join(outRoot, "2025w01"))
	if err != nil {
		t.Fatalf("digest second: %v", err)
	}
	// Identical except for the stale file the reinstall removed.
	if len(second) != len(first)-1 {
		t.Fatalf("entries first=%d second=%d", len(first), len(second))
	}
	if digest.Summary(second) == digest.Summary(first) {
		t.Fatal("stale file should have changed the first digest")
	}
}

func TestInstall_RejectsInvalidManifest(t *testing.T) {
	installer, _, _ := testInstaller(t)
	m := testManifest()
	m.Digest = ""
	if err := installer.Install(t.TempDir(), m); err == nil {
		t.Fatal("expected error for manifest without digest")
	}
}
