package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultMirror hosts gzipped copies of the official IDX files.
const DefaultMirror = "https://storage.googleapis.com/cvdf-datasets/mnist/"

const fetchTimeout = 2 * time.Minute

// Fetcher downloads and caches MNIST files into a local directory.
type Fetcher struct {
	Dir    string
	Mirror string // defaults to DefaultMirror
	Client *http.Client
	Log    *slog.Logger
}

// Ensure makes sure both IDX files for the split exist under f.Dir,
// downloading and decompressing them if needed.
func (f *Fetcher) Ensure(ctx context.Context, split string) error {
	imageFile, labelFile, err := splitFiles(split)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}

	for _, name := range []string{imageFile, labelFile} {
		path := filepath.Join(f.Dir, name)
		if _, err := os.Stat(path); err == nil {
			continue // cached
		}
		if err := f.download(ctx, name, path); err != nil {
			return fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, name, err)
		}
	}
	return nil
}

// download fetches name.gz from the mirror and writes the decompressed
// file to path. The write goes through a temp file so a cancelled
// download never leaves a truncated cache entry.
func (f *Fetcher) download(ctx context.Context, name, path string) error {
	mirror := f.Mirror
	if mirror == "" {
		mirror = DefaultMirror
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	url := mirror + name + ".gz"
	if f.Log != nil {
		f.Log.Info("downloading dataset file", "url", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("gunzip: %w", err)
	}
	defer gz.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, gz); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
