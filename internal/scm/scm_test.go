package scm

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "*scm.Git"},
		{name: "git", want: "*scm.Git"},
		{name: "go-git", want: "*scm.GoGit"},
		{name: "svn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := New(tt.name, logging.Discard())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			switch provider.(type) {
			case *Git:
				if tt.want != "*scm.Git" {
					t.Fatalf("got *Git, want %s", tt.want)
				}
			case *GoGit:
				if tt.want != "*scm.GoGit" {
					t.Fatalf("got *GoGit, want %s", tt.want)
				}
			}
		})
	}
}

// exerciseProvider walks a provider through the operations a sync performs.
func exerciseProvider(t *testing.T, provider Provider) {
	t.Helper()
	ctx := context.Background()
	o := newOrigin(t)
	o.branch(t, "dev")

	dir := filepath.Join(t.TempDir(), "clone")
	if err := provider.Clone(ctx, o.dir, dir); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	branch, err := provider.CurrentBranch(ctx, dir)
	if err != nil {
		t.Fatalf("CurrentBranch() error = %v", err)
	}
	if branch != "master" {
		t.Fatalf("CurrentBranch() = %q, want master", branch)
	}

	stale, err := provider.IsStale(ctx, dir)
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if stale {
		t.Fatal("fresh clone reported stale")
	}

	o.commit(t, "package.json", "{}\n")

	stale, err = provider.IsStale(ctx, dir)
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Fatal("expected clone to be stale after a remote commit")
	}

	if err := provider.Pull(ctx, dir); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		t.Fatalf("expected pulled file: %v", err)
	}

	if err := provider.Checkout(ctx, dir, "dev"); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	branch, err = provider.CurrentBranch(ctx, dir)
	if err != nil {
		t.Fatalf("CurrentBranch() error = %v", err)
	}
	if branch != "dev" {
		t.Fatalf("CurrentBranch() = %q, want dev", branch)
	}
}

func TestGit_Lifecycle(t *testing.T) {
	requireBinary(t, "git")
	exerciseProvider(t, NewGit(logging.Discard()))
}

func TestGoGit_Lifecycle(t *testing.T) {
	requireBinary(t, "git-upload-pack")
	exerciseProvider(t, NewGoGit(logging.Discard()))
}

func TestGit_FailureCarriesOutput(t *testing.T) {
	requireBinary(t, "git")

	var buf bytes.Buffer
	provider := NewGit(logging.New(&buf, "debug"))
	dir := t.TempDir()

	_, err := provider.CurrentBranch(context.Background(), dir)
	if err == nil {
		t.Fatal("expected error outside a repository")
	}
	var cmdErr *apperr.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", err)
	}
	if !strings.Contains(strings.ToLower(cmdErr.Output), "not a git repository") {
		t.Fatalf("unexpected output %q", cmdErr.Output)
	}
	if !strings.Contains(buf.String(), "+ git -C "+dir+" rev-parse --abbrev-ref HEAD") {
		t.Fatalf("expected command trace in debug log, got %q", buf.String())
	}
}

func TestGoGit_CheckoutMissingBranch(t *testing.T) {
	requireBinary(t, "git-upload-pack")
	ctx := context.Background()
	o := newOrigin(t)

	provider := NewGoGit(logging.Discard())
	dir := filepath.Join(t.TempDir(), "clone")
	if err := provider.Clone(ctx, o.dir, dir); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	if err := provider.Checkout(ctx, dir, "nope"); err == nil {
		t.Fatal("expected error for unknown branch")
	}
}
