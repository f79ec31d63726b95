// Package install freezes a validated run into its permanent week
// partition. Files are copied by content, never by link, so a later
// repointing of a shared source file cannot change an installed week.
package install

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lineforge/weekboard/internal/digest"
	"github.com/lineforge/weekboard/internal/domain"
)

// ManifestFilename is written into the out partition as the final step, so
// its presence is proof the partition is complete.
const ManifestFilename = "run_manifest.json"

// ChecksumsFilename lists per-file sha256 sums of the installed partition.
const ChecksumsFilename = "SHA256SUMS"

// SymlinkError reports a symbolic link that survived into a destination
// partition. Installation is refused even when digests matched.
type SymlinkError struct {
	Path string
}

func (e *SymlinkError) Error() string {
	return fmt.Sprintf("symbolic link found in installed partition: %s", e.Path)
}

// Installer is the single writer of the permanent partitions.
type Installer struct {
	Logger      *slog.Logger
	OutRoot     string
	ReportsRoot string
}

// Install copies the staging out/ and reports/ trees into week-scoped
// partitions, replacing any existing content for the same week tag, then
// writes checksums and the run manifest. Idempotent per week tag.
func (i *Installer) Install(stagingRoot string, manifest domain.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	tag := manifest.WeekTag
	outDest := filepath.Join(i.OutRoot, tag)
	reportsDest := filepath.Join(i.ReportsRoot, tag)

	for src, dest := range map[string]string{
		filepath.Join(stagingRoot, "out"):     outDest,
		filepath.Join(stagingRoot, "reports"): reportsDest,
	} {
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("clear partition %s: %w", dest, err)
		}
		if err := copyTree(src, dest); err != nil {
			return err
		}
		if err := refuseSymlinks(dest); err != nil {
			return err
		}
		if err := writeChecksums(dest); err != nil {
			return err
		}
	}

	if err := writeManifest(filepath.Join(outDest, ManifestFilename), manifest); err != nil {
		return err
	}
	i.Logger.Info("partition installed",
		"week_tag", tag, "out", outDest, "reports", reportsDest, "digest", manifest.Digest)
	return nil
}

// copyTree copies every file under src into dest by content. Symlinks to
// files and directories are dereferenced; a dangling link is an error.
func copyTree(src, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", src, err)
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dest, entry.Name())

		info, err := os.Stat(from) // follows links
		if err != nil {
			return fmt.Errorf("resolve %s: %w", from, err)
		}
		if info.IsDir() {
			resolved := from
			if entry.Type()&fs.ModeSymlink != 0 {
				resolved, err = filepath.EvalSymlinks(from)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", from, err)
				}
			}
			if err := copyTree(resolved, to); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(from, to); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dest, err)
	}
	return out.Close()
}

// refuseSymlinks scans the destination recursively; any surviving link is
// fatal. This guards the failure mode where a frozen week would still be
// reading through a live pointer.
func refuseSymlinks(dest string) error {
	return filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return &SymlinkError{Path: path}
		}
		return nil
	})
}

func writeChecksums(dest string) error {
	entries, err := digest.Tree(dest)
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(dest, ChecksumsFilename), []byte(digest.Manifest(entries)))
}

func writeManifest(path string, manifest domain.Manifest) error {
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, append(raw, '\n'))
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
