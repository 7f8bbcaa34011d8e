// Package req downloads remote files and decodes compressed payloads.
package req

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type httpClient interface {
	Do(*http.Request) (*http.Response, error)
}

var downloadClient httpClient = &http.Client{
	Timeout: 60 * time.Second,
	CheckRedirect: func(r *http.Request, via []*http.Request) error {
		r.URL.Opaque = r.URL.Path
		return nil
	},
}

// DownloadContext fetches url into path and returns the number of bytes
// written. A partially written file is removed on failure.
func DownloadContext(ctx context.Context, url string, path string) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	response, err := downloadClient.Do(request)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get %s: unexpected status %s", url, response.Status)
	}

	if err := ensureDir(path); err != nil {
		return 0, err
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	filesize := response.ContentLength
	dlsize, err := io.Copy(file, response.Body)
	if err != nil {
		file.Close()
		removeOnError(path)
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	if filesize != -1 && dlsize != filesize {
		file.Close()
		removeOnError(path)
		return 0, fmt.Errorf("download %s: truncated (%d of %d bytes)", url, dlsize, filesize)
	}
	if err := file.Close(); err != nil {
		removeOnError(path)
		return 0, fmt.Errorf("close destination: %w", err)
	}

	return dlsize, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}
	return nil
}

func removeOnError(path string) {
	_ = os.Remove(path)
}
