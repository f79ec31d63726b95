package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestTree_SortedAndStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/second.csv", "2")
	writeFile(t, root, "a/first.csv", "1")

	entries, err := Tree(root)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}
	if entries[0].Path != "a/first.csv" || entries[1].Path != "b/second.csv" {
		t.Fatalf("order=%v, want sorted relative paths", entries)
	}

	again, err := Tree(root)
	if err != nil {
		t.Fatalf("Tree again: %v", err)
	}
	if Summary(entries) != Summary(again) {
		t.Fatal("two digests of the same tree differ")
	}
}

func TestSummary_EmptyTreeIsWellDefined(t *testing.T) {
	entries, err := Tree(t.TempDir())
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries=%d, want 0", len(entries))
	}
	sum := sha256.Sum256(nil)
	if Summary(entries) != hex.EncodeToString(sum[:]) {
		t.Fatal("empty tree must digest the empty manifest")
	}
}

func TestSummary_MissingRootEqualsEmpty(t *testing.T) {
	entries, err := Tree(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries=%d, want 0", len(entries))
	}
}

func TestSummary_StrayFileChangesDigest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "model_board.csv", "game_id\ng1\n")
	before, err := Tree(root)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	writeFile(t, root, "stray.txt", "built at 1726000000123456789")
	after, err := Tree(root)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if Summary(before) == Summary(after) {
		t.Fatal("stray file did not change the summary digest")
	}
}

func TestTree_DescendsSymlinkedDirectories(t *testing.T) {
	shared := t.TempDir()
	writeFile(t, shared, "ratings/baseline.csv", "team,rating\nKC,1680\n")

	linked := t.TempDir()
	writeFile(t, linked, "model_board.csv", "game_id\ng1\n")
	if err := os.Symlink(filepath.Join(shared, "ratings"), filepath.Join(linked, "ratings")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	// A tree holding the same content as real directories must digest
	// identically, since installation copies through the link.
	plain := t.TempDir()
	writeFile(t, plain, "model_board.csv", "game_id\ng1\n")
	writeFile(t, plain, "ratings/baseline.csv", "team,rating\nKC,1680\n")

	linkedEntries, err := Tree(linked)
	if err != nil {
		t.Fatalf("Tree linked: %v", err)
	}
	plainEntries, err := Tree(plain)
	if err != nil {
		t.Fatalf("Tree plain: %v", err)
	}
	if len(linkedEntries) != 2 {
		t.Fatalf("entries=%v, want the linked directory's file included", linkedEntries)
	}
	if Summary(linkedEntries) != Summary(plainEntries) {
		t.Fatal("symlinked directory digests differently from its content")
	}
}

func TestTrees_LabelsPreventCollisions(t *testing.T) {
	out := t.TempDir()
	reports := t.TempDir()
	writeFile(t, out, "x.csv", "same")
	writeFile(t, reports, "x.csv", "same")

	entries, err := Trees(map[string]string{"out": out, "reports": reports})
	if err != nil {
		t.Fatalf("Trees: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}
	if entries[0].Path != "out/x.csv" || entries[1].Path != "reports/x.csv" {
		t.Fatalf("paths=%v, want label prefixes", entries)
	}
}

func TestManifest_Format(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.csv", "v")
	entries, err := Tree(root)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	manifest := Manifest(entries)
	want := entries[0].SHA256 + "  f.csv\n"
	if manifest != want {
		t.Fatalf("manifest=%q, want %q", manifest, want)
	}
}
