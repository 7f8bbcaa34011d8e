package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// Shell runs commands through `sh -c`, appending arguments as positional
// parameters so they reach the command unquoted and unsplit.
type Shell struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *log.Entry
}

// NewShell returns an executor wired to the process's own streams.
func NewShell(logger *log.Entry) *Shell {
	return &Shell{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Log: logger}
}

// Execute starts the command, relays interrupt and terminate signals to it
// while it runs, and waits for it to exit. The returned error is non-nil only
// when the command could not be started or waited on.
//
// The child shares the parent's process group, so a Ctrl-C typed at the
// terminal already reaches it; an interrupt is relayed only when the child
// ended up in another group. SIGTERM is always relayed since it is usually
// sent to the parent's pid alone.
func (s *Shell) Execute(ctx context.Context, cmd Resolved, dir string, args []string) (int, error) {
	script := cmd.Command.Command + ` "$@"`
	shellArgs := append([]string{"-c", script, cmd.Repository}, args...)
	if s.Log != nil {
		s.Log.Debugf("+ (cd %s && sh %s)", dir, strings.Join(shellArgs, " "))
	}

	child := exec.Command("sh", shellArgs...)
	child.Dir = dir
	child.Stdin = s.Stdin
	child.Stdout = s.Stdout
	child.Stderr = s.Stderr

	// Catch signals before the child exists so none can kill the parent
	// and orphan it.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	if err := child.Start(); err != nil {
		return 1, err
	}
	sameGroup := sameProcessGroup(child.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	for {
		select {
		case sig := <-signals:
			if relayed(sig, sameGroup) {
				_ = child.Process.Signal(sig)
			}
		case <-ctx.Done():
			_ = child.Process.Signal(syscall.SIGTERM)
			ctx = context.Background()
		case err := <-done:
			return exitCode(err)
		}
	}
}

// relayed reports whether sig received by the parent must be sent on to a
// child that is, or is not, in the parent's process group.
func relayed(sig os.Signal, sameGroup bool) bool {
	return sig != os.Interrupt || !sameGroup
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Terminated by a signal.
			code = 1
		}
		return code, nil
	}
	return 1, err
}
