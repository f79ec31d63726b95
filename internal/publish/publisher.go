// Package publish mirrors an installed week partition to S3-compatible
// object storage. Publishing never mutates the partition; it refuses to
// mirror a partition whose manifest is missing, since manifest presence is
// the completeness proof.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/lineforge/weekboard/internal/digest"
	"github.com/lineforge/weekboard/internal/install"
	"github.com/lineforge/weekboard/internal/platform/objectstore"
)

type Publisher struct {
	Logger *slog.Logger
	Store  objectstore.Store
	Bucket string
}

// Publish uploads every file of the week's out and reports partitions
// under <week_tag>/out/... and <week_tag>/reports/... keys.
func (p *Publisher) Publish(ctx context.Context, outRoot, reportsRoot, weekTag string) error {
	outDir := filepath.Join(outRoot, weekTag)
	if _, err := os.Stat(filepath.Join(outDir, install.ManifestFilename)); err != nil {
		return fmt.Errorf("partition %s has no manifest, refusing to publish: %w", weekTag, err)
	}

	uploaded := 0
	for label, dir := range map[string]string{
		"out":     outDir,
		"reports": filepath.Join(reportsRoot, weekTag),
	} {
		entries, err := digest.Tree(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			key := path.Join(weekTag, label, entry.Path)
			if err := p.upload(ctx, filepath.Join(dir, filepath.FromSlash(entry.Path)), key); err != nil {
				return err
			}
			uploaded++
		}
	}
	p.Logger.Info("partition published", "week_tag", weekTag, "bucket", p.Bucket, "files", uploaded)
	return nil
}

func (p *Publisher) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := p.Store.Put(ctx, p.Bucket, key, f, info.Size(), contentType); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
