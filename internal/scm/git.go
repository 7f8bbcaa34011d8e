package scm

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pelias/cli/internal/apperr"
	log "github.com/sirupsen/logrus"
)

// Git drives the git binary found on PATH.
type Git struct {
	Binary string
	log    *log.Entry
}

// NewGit returns a provider that shells out to git.
func NewGit(logger *log.Entry) *Git {
	return &Git{Binary: "git", log: logger}
}

func (g *Git) Clone(ctx context.Context, url, dir string) error {
	_, err := g.run(ctx, "clone", url, dir)
	return err
}

func (g *Git) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) Checkout(ctx context.Context, dir, branch string) error {
	_, err := g.run(ctx, "-C", dir, "checkout", branch)
	return err
}

// IsStale treats any output from a dry-run fetch as pending remote changes.
func (g *Git) IsStale(ctx context.Context, dir string) (bool, error) {
	out, err := g.run(ctx, "-C", dir, "fetch", "--dry-run")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (g *Git) Pull(ctx context.Context, dir string) error {
	_, err := g.run(ctx, "-C", dir, "pull")
	return err
}

// run executes git and returns its combined output. Failures are reported as
// *apperr.CommandError so callers can show what git printed.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}
	if g.log != nil {
		g.log.Debugf("+ %s %s", binary, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return buf.String(), &apperr.CommandError{
			Command: binary + " " + strings.Join(args, " "),
			Output:  buf.String(),
			Err:     err,
		}
	}
	return buf.String(), nil
}
