package shared

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// Cache root entries that can never collide with a repository name.
const (
	RegistryFile   = ".registry.json"
	SubcommandsDir = ".subcommands"
	TablesDir      = ".tables"
)

// StorageDir determines the pelias cache root.
func StorageDir() (string, error) {
	if override := os.Getenv("PELIAS_HOME"); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home: %w", err)
	}
	return filepath.Join(home, ".pelias"), nil
}

// IsRemotePath reports whether the provided path is an HTTP(S) URL.
func IsRemotePath(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// FileDigest returns the hex BLAKE3 digest of the file at path.
func FileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyDigest computes a BLAKE3 digest for the file and compares it to the expected string.
func VerifyDigest(path, expected string) (bool, string, error) {
	actualHex, err := FileDigest(path)
	if err != nil {
		return false, "", err
	}

	expected = strings.TrimSpace(expected)
	if expected == "" {
		return true, actualHex, nil
	}

	return strings.EqualFold(expected, actualHex), actualHex, nil
}

// GenerateEntryID derives a stable identifier for a table source.
func GenerateEntryID(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:8])
}

// BackupIfDigestMismatch moves a table copy aside when its contents no
// longer match the digest recorded at fetch time, so hand edits survive a
// refresh. It returns the backup path, or "" when nothing was moved.
func BackupIfDigestMismatch(path, expected string) (string, error) {
	if strings.TrimSpace(expected) == "" {
		return "", nil
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("stat table copy: %w", err)
	case info.IsDir():
		return "", fmt.Errorf("table copy %s is a directory", path)
	}

	match, _, err := VerifyDigest(path, expected)
	if err != nil {
		return "", fmt.Errorf("verify digest: %w", err)
	}
	if match {
		return "", nil
	}

	backup, err := NextBackupPath(path)
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("move %s aside: %w", filepath.Base(path), err)
	}
	return backup, nil
}

const maxBackups = 1000

// NextBackupPath returns the first free name of path.bak, path.1.bak,
// path.2.bak and so on. Table loaders skip the .bak suffix.
func NextBackupPath(path string) (string, error) {
	for i := 0; i < maxBackups; i++ {
		candidate := path + ".bak"
		if i > 0 {
			candidate = fmt.Sprintf("%s.%d.bak", path, i)
		}
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat backup candidate: %w", err)
		}
	}
	return "", fmt.Errorf("no free backup name for %s", path)
}
