// Package install runs a repository's dependency installation step.
package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pelias/cli/internal/apperr"
	log "github.com/sirupsen/logrus"
)

// Installer installs the dependencies of the working copy at dir. It reports
// whether an installation actually ran.
type Installer interface {
	Install(ctx context.Context, dir string) (bool, error)
}

// Command runs a shell command in dir when Manifest exists there.
type Command struct {
	Command  string
	Manifest string
	Log      *log.Entry
}

// NewCommand returns an installer for the given command and manifest file.
func NewCommand(command, manifest string, logger *log.Entry) *Command {
	return &Command{Command: command, Manifest: manifest, Log: logger}
}

// HasManifest reports whether dir contains the manifest file.
func (c *Command) HasManifest(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, c.Manifest))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat manifest: %w", err)
}

func (c *Command) Install(ctx context.Context, dir string) (bool, error) {
	if strings.TrimSpace(c.Command) == "" {
		return false, errors.New("install command is empty")
	}
	ok, err := c.HasManifest(dir)
	if err != nil || !ok {
		return false, err
	}

	if c.Log != nil {
		c.Log.Debugf("+ (cd %s && %s)", dir, c.Command)
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", c.Command)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return true, &apperr.CommandError{Command: c.Command, Output: buf.String(), Err: err}
	}
	return true, nil
}
