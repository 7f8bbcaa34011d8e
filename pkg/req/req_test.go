package req

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type fakeHTTPClient struct {
	doFunc func(*http.Request) (*http.Response, error)
}

func (f fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return f.doFunc(req)
}

func replaceClient(tb testing.TB, client httpClient) func() {
	tb.Helper()
	original := downloadClient
	downloadClient = client
	return func() {
		downloadClient = original
	}
}

const fixture = `{"start": {"description": "Start the API.", "command": "npm start"}}`

func TestDownload_FileSize(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "nested", "api.json")

	fixtureData := []byte(fixture)
	defer replaceClient(t, fakeHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    http.StatusOK,
			Body:          io.NopCloser(bytes.NewReader(fixtureData)),
			ContentLength: int64(len(fixtureData)),
			Header:        make(http.Header),
		}, nil
	}})()

	dlsize, err := DownloadContext(context.Background(), "http://example.com/api.json", tmpFile)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !bytes.Equal(data, fixtureData) {
		t.Fatalf("unexpected content %q", data)
	}
	if int64(len(fixtureData)) != dlsize {
		t.Fatalf("expected download size %d, got %d", len(fixtureData), dlsize)
	}
}

func TestDownload_HTTPError(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tmpfile")

	defer replaceClient(t, fakeHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}})()

	if _, err := DownloadContext(context.Background(), "http://example.com/missing", tmpFile); err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if _, statErr := os.Stat(tmpFile); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected file to be removed, stat error: %v", statErr)
	}
}

func TestDownload_ClientError(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tmpfile")

	expectedErr := errors.New("network error")
	defer replaceClient(t, fakeHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return nil, expectedErr
	}})()

	if _, err := DownloadContext(context.Background(), "http://example.com/error", tmpFile); !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}
	if _, statErr := os.Stat(tmpFile); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected file to be removed, stat error: %v", statErr)
	}
}

func TestDownload_Truncated(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tmpfile")

	defer replaceClient(t, fakeHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    http.StatusOK,
			Body:          io.NopCloser(bytes.NewReader([]byte("short"))),
			ContentLength: 100,
			Header:        make(http.Header),
		}, nil
	}})()

	if _, err := DownloadContext(context.Background(), "http://example.com/short", tmpFile); err == nil {
		t.Fatal("expected error for truncated body")
	}
	if _, statErr := os.Stat(tmpFile); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected file to be removed, stat error: %v", statErr)
	}
}

func TestEncodingOf(t *testing.T) {
	tests := []struct {
		name         string
		wantEncoding string
		wantName     string
	}{
		{"api.json", EncodingNone, "api.json"},
		{"api.json.zst", EncodingZstd, "api.json"},
		{"schema.yml.XZ", EncodingXz, "schema.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoding, name := EncodingOf(tt.name)
			if encoding != tt.wantEncoding || name != tt.wantName {
				t.Fatalf("EncodingOf(%q) = %q, %q", tt.name, encoding, name)
			}
		})
	}
}

func TestDecodeFile(t *testing.T) {
	var zstdBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zstdBuf)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	if _, err := zw.Write([]byte(fixture)); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		t.Fatalf("xz.NewWriter: %v", err)
	}
	if _, err := xw.Write([]byte(fixture)); err != nil {
		t.Fatalf("xz write: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}

	tests := []struct {
		encoding string
		payload  []byte
	}{
		{EncodingNone, []byte(fixture)},
		{EncodingZstd, zstdBuf.Bytes()},
		{EncodingXz, xzBuf.Bytes()},
	}

	for _, tt := range tests {
		t.Run("encoding="+tt.encoding, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "payload")
			dst := filepath.Join(dir, "out", "api.json")
			if err := os.WriteFile(src, tt.payload, 0o644); err != nil {
				t.Fatalf("failed to write payload: %v", err)
			}

			if err := DecodeFile(tt.encoding, src, dst); err != nil {
				t.Fatalf("DecodeFile() error = %v", err)
			}
			got, err := os.ReadFile(dst)
			if err != nil {
				t.Fatalf("failed to read output: %v", err)
			}
			if string(got) != fixture {
				t.Fatalf("decoded %q", got)
			}
		})
	}
}

func TestDecodeFile_Errors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "payload")
	if err := os.WriteFile(src, []byte("not compressed"), 0o644); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}

	if err := DecodeFile("brotli", src, filepath.Join(dir, "a")); err == nil {
		t.Fatal("expected unsupported encoding error")
	}
	dst := filepath.Join(dir, "b")
	if err := DecodeFile(EncodingXz, src, dst); err == nil {
		t.Fatal("expected xz header error")
	}
	if err := DecodeFile(EncodingZstd, src, dst); err == nil {
		t.Fatal("expected zstd decode error")
	}
	if _, err := os.Stat(dst); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected failed output to be removed: %v", err)
	}
}
