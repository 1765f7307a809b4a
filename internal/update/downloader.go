package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultUserAgent identifies the updater when no other agent is configured.
const DefaultUserAgent = "sidecar-updater"

// HTTPDownloader downloads release assets over HTTP.
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPDownloader creates a downloader. A nil client means a client
// without a timeout, since executables can be large.
func NewHTTPDownloader(client *http.Client, userAgent string) *HTTPDownloader {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPDownloader{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch streams the body of url into dst. The body is written to a temp file
// next to dst and renamed over it only after it is fully written and synced.
// A failed fetch never leaves an empty or truncated file at dst; whatever
// was there before is left alone.
func (d *HTTPDownloader) Fetch(ctx context.Context, url, dst string) error {
	op := "download " + filepath.Base(dst)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return newError(KindNetwork, op, err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return newError(KindNetwork, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(KindNetwork, op,
			fmt.Errorf("GET %s returned status %d", redactURL(url), resp.StatusCode))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".part-*")
	if err != nil {
		return newError(KindFilesystem, op, err)
	}
	tmpPath := tmp.Name()

	body := &trackingReader{r: resp.Body}
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if body.err != nil {
			return newError(KindNetwork, op, fmt.Errorf("failed to read body: %w", err))
		}
		return newError(KindFilesystem, op, fmt.Errorf("failed to write body: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return newError(KindFilesystem, op, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return newError(KindFilesystem, op, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return newError(KindFilesystem, op, err)
	}
	return nil
}

// trackingReader remembers the last non-EOF read error so a failed copy can
// be attributed to the network or to the disk.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
