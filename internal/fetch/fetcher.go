// Package fetch downloads release artifacts to local files. Artifacts
// run to hundreds of megabytes, so bodies are streamed to disk in
// fixed-size chunks rather than buffered in memory.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/custodia-labs/jbsync/internal/core/ports/driven"
	"github.com/custodia-labs/jbsync/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.ArtifactFetcher = (*Fetcher)(nil)

const (
	// downloadTimeout bounds the whole transfer. Generous on purpose:
	// installers are large and mirrors can be slow.
	downloadTimeout = 10 * time.Minute

	// chunkSize is the copy buffer size.
	chunkSize = 64 * 1024

	// progressInterval is how many bytes pass between progress lines.
	progressInterval = 5 * 1024 * 1024

	// userAgent matches the page parser's header; the vendor CDN also
	// rejects bot-like clients.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// DownloadError indicates an artifact fetch failed. The partial file
// has already been removed when this error is returned.
type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Fetcher streams artifact URLs to local files.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates an artifact fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// Download streams url to dest and returns dest. A file already present
// at dest is treated as already downloaded and returned unchanged; its
// size is not validated (known limitation). On any fetch or write error
// the partial file is removed before the error is returned.
func (f *Fetcher) Download(ctx context.Context, url, dest string) (string, error) {
	if _, err := os.Stat(dest); err == nil {
		logger.Info("File already exists, skipping download: %s", dest)
		return dest, nil
	}

	logger.Info("Downloading: %s", url)

	if err := f.download(ctx, url, dest); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Could not remove partial file %s: %v", dest, rmErr)
		}
		return "", &DownloadError{URL: url, Path: dest, Err: err}
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", &DownloadError{URL: url, Path: dest, Err: err}
	}
	logger.Info("Download complete: %s (%d MB)", dest, info.Size()/(1024*1024))
	return dest, nil
}

func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if err := copyWithProgress(out, resp.Body, resp.ContentLength); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyWithProgress copies body to out in chunks, logging a progress
// line roughly every progressInterval bytes when the total is known.
func copyWithProgress(out io.Writer, body io.Reader, total int64) error {
	buf := make([]byte, chunkSize)
	var written, lastReport int64

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if total > 0 && written-lastReport >= progressInterval {
				lastReport = written
				logger.Info("Download progress: %dMB / %dMB (%.1f%%)",
					written/(1024*1024), total/(1024*1024),
					float64(written)/float64(total)*100)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
