// downloader.go implements the Downloader molecule that fetches images
// from temporary URLs returned by image providers.
//
// Provider URLs expire after about an hour, so the renderer downloads
// immediately and persists the bytes itself.
package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"paintflow/core"
)

// Downloader fetches provider-hosted images over HTTP.
//
// Thread safety: safe for concurrent use; each download is its own request.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a Downloader with a 60 second timeout.
func NewDownloader() *Downloader {
	return &Downloader{
		client: core.GetHTTPClient(60 * time.Second),
	}
}

// DownloadBytes fetches the image at url and returns its raw bytes and
// Content-Type.
func (d *Downloader) DownloadBytes(ctx context.Context, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("imagegen: URL cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: failed to create download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("imagegen: download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: failed to read image data: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
