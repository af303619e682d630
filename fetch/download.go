package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrIntegrity is returned when a downloaded artifact does not match its digest.
var ErrIntegrity = errors.New("integrity check failed")

// Downloader writes resolved artifacts into a local directory.
type Downloader struct {
	getter      Getter
	logger      *slog.Logger
	concurrency int
}

// NewDownloader creates a downloader. A nil logger discards output.
func NewDownloader(g Getter, logger *slog.Logger, concurrency int) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if concurrency < 1 {
		concurrency = 4
	}
	return &Downloader{getter: g, logger: logger, concurrency: concurrency}
}

// Download fetches one artifact into dir and returns the written path.
// The file only appears under its final name once the digest matched.
func (d *Downloader) Download(ctx context.Context, info *ArtifactInfo, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	artifact, err := d.getter.Fetch(ctx, info.URL)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", info.URL, err)
	}
	defer func() { _ = artifact.Body.Close() }()

	tmp, err := os.CreateTemp(dir, "."+info.Filename+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), artifact.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", info.Filename, err)
	}

	if err := checkIntegrity(info.Integrity, h.Sum(nil)); err != nil {
		return "", fmt.Errorf("%s: %w", info.Filename, err)
	}

	dest := filepath.Join(dir, info.Filename)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("moving %s into place: %w", info.Filename, err)
	}

	d.logger.Info("downloaded artifact", "name", info.Name, "version", info.Version, "path", dest, "bytes", n)
	return dest, nil
}

// DownloadAll downloads every artifact concurrently and returns the paths
// in the same order as infos.
func (d *Downloader) DownloadAll(ctx context.Context, infos []*ArtifactInfo, dir string) ([]string, error) {
	paths := make([]string, len(infos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, info := range infos {
		g.Go(func() error {
			p, err := d.Download(gctx, info, dir)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// checkIntegrity compares a "sha256-<hex>" digest with sum.
// An empty digest is accepted; other algorithms are rejected.
func checkIntegrity(integrity string, sum []byte) error {
	if integrity == "" {
		return nil
	}
	algo, want, ok := strings.Cut(integrity, "-")
	if !ok || algo != "sha256" {
		return fmt.Errorf("%w: unsupported digest %q", ErrIntegrity, integrity)
	}
	if got := hex.EncodeToString(sum); !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: got sha256 %s, want %s", ErrIntegrity, got, want)
	}
	return nil
}
