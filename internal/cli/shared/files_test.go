package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorageDirOverride(t *testing.T) {
	t.Setenv("PELIAS_HOME", "/tmp/pelias-home")
	dir, err := StorageDir()
	if err != nil {
		t.Fatalf("StorageDir returned error: %v", err)
	}
	if dir != "/tmp/pelias-home" {
		t.Fatalf("unexpected storage dir %q", dir)
	}
}

func TestStorageDirDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PELIAS_HOME", "")
	t.Setenv("HOME", home)
	dir, err := StorageDir()
	if err != nil {
		t.Fatalf("StorageDir returned error: %v", err)
	}
	if want := filepath.Join(home, ".pelias"); dir != want {
		t.Fatalf("expected %q, got %q", want, dir)
	}
}

func TestIsRemotePath(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/a.json": true,
		"HTTP://example.com/a.json":  true,
		"/etc/tables/a.json":         false,
		"file:///a.json":             false,
		"tables/a.yml":               false,
	}
	for in, want := range cases {
		if got := IsRemotePath(in); got != want {
			t.Errorf("IsRemotePath(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBackupIfDigestMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.json")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	digest, err := FileDigest(path)
	if err != nil {
		t.Fatalf("FileDigest returned error: %v", err)
	}

	backup, err := BackupIfDigestMismatch(path, digest)
	if err != nil {
		t.Fatalf("BackupIfDigestMismatch returned error: %v", err)
	}
	if backup != "" {
		t.Fatalf("expected no backup for matching digest, got %q", backup)
	}

	if err := os.WriteFile(path, []byte("edited by hand"), 0o644); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}
	backup, err = BackupIfDigestMismatch(path, digest)
	if err != nil {
		t.Fatalf("BackupIfDigestMismatch returned error: %v", err)
	}
	if backup != path+".bak" {
		t.Fatalf("unexpected backup path %q", backup)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original to be moved, stat err=%v", err)
	}

	if err := os.WriteFile(path, []byte("edited again"), 0o644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	backup, err = BackupIfDigestMismatch(path, digest)
	if err != nil {
		t.Fatalf("BackupIfDigestMismatch returned error: %v", err)
	}
	if backup != path+".1.bak" {
		t.Fatalf("expected numbered backup, got %q", backup)
	}
}

func TestGenerateEntryIDIsStable(t *testing.T) {
	a := GenerateEntryID("https://example.com/widgets.json")
	b := GenerateEntryID("https://example.com/widgets.json")
	if a != b || len(a) != 16 {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
	if a == GenerateEntryID("https://example.com/other.json") {
		t.Fatal("expected distinct ids for distinct sources")
	}
}
