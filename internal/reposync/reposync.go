// Package reposync keeps the cached working copy of a repository on the
// requested branch and up to date with its remote.
package reposync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/install"
	"github.com/pelias/cli/internal/scm"
	"github.com/pelias/cli/internal/target"
	log "github.com/sirupsen/logrus"
)

// Reporter receives human-readable progress lines.
type Reporter interface {
	Progress(format string, args ...any)
}

type nopReporter struct{}

func (nopReporter) Progress(string, ...any) {}

// Synchronizer brings root/<name> in line with the remote repository.
type Synchronizer struct {
	Root          string
	DefaultBranch string
	// URL derives the clone URL of a repository name.
	URL       func(name string) string
	SCM       scm.Provider
	Installer install.Installer
	Reporter  Reporter
	Log       *log.Entry
}

// Result describes what a Sync call did.
type Result struct {
	Path       string
	Cloned     bool
	CheckedOut bool
	Pulled     bool
	Installed  bool
}

// Sync ensures root/name exists, is on branch and has no pending remote
// changes, installing dependencies whenever the working copy changed.
//
// A missing working copy is cloned, switched to branch unless it is the
// default, and installed. An existing one on the same branch is pulled and
// reinstalled only when stale. An existing one on another branch is checked
// out, pulled if stale, and always reinstalled.
func (s *Synchronizer) Sync(ctx context.Context, name, branch string) (Result, error) {
	if err := target.ValidateName(name); err != nil {
		return Result{}, err
	}
	if branch == "" {
		branch = s.defaultBranch()
	}
	if err := target.ValidateBranch(branch); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return Result{}, apperr.New(apperr.KindSyncFailure, "failed to create cache directory", err)
	}

	res := Result{Path: filepath.Join(s.Root, name)}
	logger := s.logger().WithFields(log.Fields{"repo": name, "branch": branch, "path": res.Path})

	exists, err := dirExists(res.Path)
	if err != nil {
		return res, apperr.New(apperr.KindSyncFailure, "failed to inspect "+res.Path, err)
	}

	if !exists {
		logger.Debug("no working copy, cloning")
		s.reporter().Progress("Cloning repo.")
		if err := s.SCM.Clone(ctx, s.url(name), res.Path); err != nil {
			return res, failure("failed to clone "+name, err)
		}
		res.Cloned = true

		if branch != s.defaultBranch() {
			if err := s.checkout(ctx, &res, branch); err != nil {
				return res, err
			}
		}
		return res, s.install(ctx, &res)
	}

	current, err := s.SCM.CurrentBranch(ctx, res.Path)
	if err != nil {
		return res, failure("failed to read current branch of "+name, err)
	}
	logger.WithField("current", current).Debug("found working copy")

	switchBranch := current != branch
	if switchBranch {
		if err := s.checkout(ctx, &res, branch); err != nil {
			return res, err
		}
	}

	stale, err := s.SCM.IsStale(ctx, res.Path)
	if err != nil {
		return res, failure("failed to check "+name+" for remote changes", err)
	}
	if stale {
		s.reporter().Progress("Pulling latest changes.")
		if err := s.SCM.Pull(ctx, res.Path); err != nil {
			return res, failure("failed to pull "+name, err)
		}
		res.Pulled = true
	}

	if !switchBranch && !stale {
		logger.Debug("working copy up to date")
		return res, nil
	}
	return res, s.install(ctx, &res)
}

func (s *Synchronizer) checkout(ctx context.Context, res *Result, branch string) error {
	s.reporter().Progress("Checking out: %s", branch)
	if err := s.SCM.Checkout(ctx, res.Path, branch); err != nil {
		return failure("failed to check out "+branch, err)
	}
	res.CheckedOut = true
	return nil
}

func (s *Synchronizer) install(ctx context.Context, res *Result) error {
	if s.Installer == nil {
		return nil
	}
	s.reporter().Progress("Installing dependencies.")
	ran, err := s.Installer.Install(ctx, res.Path)
	res.Installed = ran
	if err != nil {
		return failure("failed to install dependencies", err)
	}
	if !ran {
		s.logger().WithField("path", res.Path).Debug("no dependency manifest, install skipped")
	}
	return nil
}

func (s *Synchronizer) defaultBranch() string {
	if s.DefaultBranch == "" {
		return target.DefaultBranch
	}
	return s.DefaultBranch
}

func (s *Synchronizer) url(name string) string {
	if s.URL == nil {
		return name
	}
	return s.URL(name)
}

func (s *Synchronizer) reporter() Reporter {
	if s.Reporter == nil {
		return nopReporter{}
	}
	return s.Reporter
}

func (s *Synchronizer) logger() *log.Entry {
	if s.Log == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return s.Log
}

// failure wraps err as a sync failure carrying the failing command's output.
func failure(message string, err error) error {
	return apperr.WithOutput(apperr.New(apperr.KindSyncFailure, message, err), apperr.OutputOf(err))
}

func dirExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
