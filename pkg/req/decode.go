package req

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Supported encodings.
const (
	EncodingNone = ""
	EncodingZstd = "zstd"
	EncodingXz   = "xz"
)

// EncodingOf infers the encoding from a file extension and returns the name
// with that extension removed.
func EncodingOf(name string) (encoding, decodedName string) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return EncodingZstd, strings.TrimSuffix(name, filepath.Ext(name))
	case ".xz":
		return EncodingXz, strings.TrimSuffix(name, filepath.Ext(name))
	default:
		return EncodingNone, name
	}
}

// DecodeFile decodes srcPath according to encoding and writes the result to dstPath.
// Supported encodings include the empty string (no decoding), "zstd" and "xz".
func DecodeFile(encoding, srcPath, dstPath string) error {
	if err := ensureDir(dstPath); err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	cleaned := strings.TrimSpace(strings.ToLower(encoding))
	switch cleaned {
	case "", "none":
		return writeFile(dstPath, src)
	case "zstd":
		decoder, err := zstd.NewReader(src)
		if err != nil {
			return fmt.Errorf("init decoder: %w", err)
		}
		defer decoder.Close()
		return writeFile(dstPath, decoder)
	case "xz":
		decoder, err := xz.NewReader(src)
		if err != nil {
			return fmt.Errorf("open xz reader: %w", err)
		}
		return writeFile(dstPath, decoder)
	default:
		return fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

func writeFile(dstPath string, r io.Reader) error {
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		removeOnError(dstPath)
		return fmt.Errorf("decode: %w", err)
	}

	if err := dst.Close(); err != nil {
		removeOnError(dstPath)
		return fmt.Errorf("close destination: %w", err)
	}

	return nil
}
