package cli

import (
	"io"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/cli/shared"
	"github.com/pelias/cli/internal/dispatch"
	"github.com/pelias/cli/internal/install"
	"github.com/pelias/cli/internal/scm"
)

// Deps are the collaborators Run wires together. Nil fields are built from
// the configuration.
type Deps struct {
	Download  shared.DownloadFunc
	SCM       scm.Provider
	Installer install.Installer
	Executor  dispatch.Executor
	Stdin     io.Reader
}

// Run executes the pelias CLI with the provided arguments and writers,
// returning the process exit code.
func Run(args []string, stdout, stderr io.Writer, deps Deps) int {
	a := newApp(stdout, stderr, deps)
	root := newRootCmd(a)
	root.SetOut(stdout)
	root.SetErr(stderr)
	// cobra falls back to os.Args for nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		a.report(err)
		return apperr.ExitCode(err)
	}
	return 0
}
