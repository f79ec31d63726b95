// Package digest computes content digests over output trees. The digest of
// a tree is the sha256 of a checksums manifest listing every regular file
// in sorted relative-path order, so two trees match exactly when their
// digests match.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one file's checksum within a tree manifest.
type Entry struct {
	Path   string
	SHA256 string
}

// Tree walks root and returns a checksum entry per regular file, sorted by
// relative path. Symlinks to files and directories are followed to their
// content, matching what installation copies; an empty or missing tree
// yields zero entries, which is a legitimate result.
func Tree(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var entries []Entry
	if err := walkTree(root, "", &entries); err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func walkTree(dir, prefix string, entries *[]Entry) error {
	items, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, item := range items {
		path := filepath.Join(dir, item.Name())
		rel := item.Name()
		if prefix != "" {
			rel = prefix + "/" + item.Name()
		}
		info, err := os.Stat(path) // follows links
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if info.IsDir() {
			if err := walkTree(path, rel, entries); err != nil {
				return err
			}
			continue
		}
		sum, err := File(path)
		if err != nil {
			return err
		}
		*entries = append(*entries, Entry{Path: rel, SHA256: sum})
	}
	return nil
}

// File returns the hex sha256 of one file's content.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Manifest renders entries as checksum lines, one file per line. Zero
// entries render as the empty manifest.
func Manifest(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.SHA256)
		b.WriteString("  ")
		b.WriteString(e.Path)
		b.WriteString("\n")
	}
	return b.String()
}

// Summary reduces entries to a single digest: sha256 over the rendered
// manifest. The empty manifest still has a well-defined digest.
func Summary(entries []Entry) string {
	sum := sha256.Sum256([]byte(Manifest(entries)))
	return hex.EncodeToString(sum[:])
}

// Trees digests several roots as one logical output set. Entries from each
// root are prefixed with its label so identical content under different
// roots cannot collide.
func Trees(roots map[string]string) ([]Entry, error) {
	labels := make([]string, 0, len(roots))
	for label := range roots {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var combined []Entry
	for _, label := range labels {
		entries, err := Tree(roots[label])
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			combined = append(combined, Entry{Path: label + "/" + e.Path, SHA256: e.SHA256})
		}
	}
	return combined, nil
}
