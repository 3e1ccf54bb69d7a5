package importer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"
)

type Importer struct {
	repo     *db.Repo
	encoding string
	s3cfg    config.S3Config

	s3Once sync.Once
	s3     *s3Source
	s3Err  error
}

func New(repo *db.Repo, cfg config.Config) *Importer {
	return &Importer{repo: repo, encoding: cfg.Import.Encoding, s3cfg: cfg.S3}
}

// ImportReader 解析整张表后一次性写入；解析失败时数据库不受影响
func (im *Importer) ImportReader(ctx context.Context, source string, r io.Reader) (db.ImportResult, error) {
	b, err := Parse(r, im.encoding)
	if err != nil {
		return db.ImportResult{}, fmt.Errorf("%s: %w", source, err)
	}
	res, err := im.repo.ImportItems(ctx, source, b.Rows)
	if err != nil {
		return db.ImportResult{}, fmt.Errorf("%s: %w", source, err)
	}
	res.Skipped += b.HeaderRows
	log.Printf("imported %d items from %s (%d created, %d updated, %d skipped)",
		res.Imported, source, res.Created, res.Updated, res.Skipped)
	return res, nil
}

// ImportFile accepts a local path or an s3://bucket/key URL.
func (im *Importer) ImportFile(ctx context.Context, path string) (db.ImportResult, error) {
	rc, err := im.open(ctx, path)
	if err != nil {
		return db.ImportResult{}, err
	}
	defer rc.Close()
	return im.ImportReader(ctx, path, rc)
}

func (im *Importer) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "s3://") {
		bucket, key, ok := parseS3URL(path)
		if !ok {
			return nil, fmt.Errorf("invalid s3 url %q", path)
		}
		im.s3Once.Do(func() { im.s3, im.s3Err = newS3Source(ctx, im.s3cfg) })
		if im.s3Err != nil {
			return nil, im.s3Err
		}
		return im.s3.open(ctx, bucket, key)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return f, nil
}
