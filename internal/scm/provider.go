// Package scm abstracts the source-control operations needed to keep a local
// working copy in step with its remote.
package scm

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Provider performs source-control operations on explicit paths. No method
// changes the process working directory.
type Provider interface {
	// Clone creates a working copy of url at dir.
	Clone(ctx context.Context, url, dir string) error
	// CurrentBranch reports the branch checked out in dir.
	CurrentBranch(ctx context.Context, dir string) (string, error)
	// Checkout switches dir to branch.
	Checkout(ctx context.Context, dir, branch string) error
	// IsStale reports whether the remote has changes not yet pulled.
	IsStale(ctx context.Context, dir string) (bool, error)
	// Pull integrates remote changes for the current branch.
	Pull(ctx context.Context, dir string) error
}

// New returns the provider registered under name.
func New(name string, logger *log.Entry) (Provider, error) {
	switch name {
	case "", "git":
		return NewGit(logger), nil
	case "go-git":
		return NewGoGit(logger), nil
	default:
		return nil, fmt.Errorf("unsupported scm provider %q", name)
	}
}
