package cli

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/cli/shared"
	"github.com/pelias/cli/internal/config"
	"github.com/pelias/cli/internal/logging"
	"github.com/pelias/cli/internal/registry"
	"github.com/pelias/cli/internal/subcommands"
	"github.com/pelias/cli/internal/target"
	log "github.com/sirupsen/logrus"
)

//go:embed HELP.txt
var helpText string

const usageLine = "usage: pelias <repo>[#<branch>] <subcommand> [args...] (run 'pelias --help' for details)"

// app carries the state of one invocation. tables and target are filled in
// as the invocation progresses so errors can be reported with context.
type app struct {
	stdout io.Writer
	stderr io.Writer
	deps   Deps

	tables subcommands.Tables
	target target.Target
}

func newApp(stdout, stderr io.Writer, deps Deps) *app {
	return &app{stdout: stdout, stderr: stderr, deps: deps}
}

// env is the cache root, configuration and registry of an invocation.
type env struct {
	root  string
	cfg   *config.Config
	log   *log.Entry
	store registry.Store
}

func (e *env) registryPath() string {
	return filepath.Join(e.root, shared.RegistryFile)
}

func (e *env) saveRegistry() {
	if err := e.store.Save(e.registryPath()); err != nil {
		e.log.WithError(err).Warn("failed to save registry")
	}
}

func (a *app) loadEnv() (*env, error) {
	root, err := shared.StorageDir()
	if err != nil {
		return nil, apperr.New(apperr.KindConfig, "cannot determine cache directory", err)
	}

	cfg, err := config.Load(config.Path(root))
	if err != nil {
		return nil, apperr.New(apperr.KindConfig, "invalid configuration", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, apperr.New(apperr.KindConfig, "invalid configuration", err)
	}

	e := &env{root: root, cfg: cfg, log: logging.New(a.stderr, cfg.LogLevel)}
	e.log.WithField("root", root).Debug("cache root")

	store, err := registry.Load(e.registryPath())
	if err != nil {
		e.log.WithError(err).Warn("ignoring unreadable registry")
		store = registry.Store{}
	}
	e.store = store
	return e, nil
}

// loadTables merges the built-in tables with fetched sources, configured
// directories and the user's own directory, in increasing precedence.
// Files that fail to load are reported and left out.
func (a *app) loadTables(e *env) subcommands.Tables {
	layers := subcommands.Layered{
		subcommands.Defaults(),
		subcommands.Dir(filepath.Join(e.root, shared.TablesDir)),
	}
	for _, dir := range e.cfg.SubcommandDirs {
		layers = append(layers, subcommands.Dir(dir))
	}
	layers = append(layers, subcommands.Dir(filepath.Join(e.root, shared.SubcommandsDir)))

	tables, err := layers.Load()
	if err != nil {
		a.warn(err)
	}
	a.tables = tables
	return tables
}

func (a *app) printOut(format string, args ...any) {
	fmt.Fprintf(a.stdout, "pelias: "+format+"\n", args...)
}

func (a *app) printErr(format string, args ...any) {
	fmt.Fprintf(a.stderr, "pelias: error: "+format+"\n", args...)
}

func (a *app) warn(err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(a.stderr, "pelias: warning: %s\n", line)
	}
}

// Progress implements reposync.Reporter.
func (a *app) Progress(format string, args ...any) {
	a.printOut(format, args...)
}

func (a *app) help() error {
	fmt.Fprint(a.stdout, helpText)
	return nil
}

func (a *app) printRepoNames() {
	a.printOut("Here are the available repos:")
	for _, repo := range a.tables.Repositories() {
		a.printOut("    %s", repo)
	}
}

func (a *app) printRepoSubcommands(repo string) {
	a.printOut("Here are the available subcommands for `%s`.", repo)
	table := a.tables[repo]
	for _, name := range table.Names() {
		a.printOut("    %s: %s", name, table[name].Description)
	}
}

// report prints err followed by whatever help fits its kind. A child that
// exited non-zero has already spoken for itself.
func (a *app) report(err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind == apperr.KindDispatchFailure && appErr.ExitCode > 0 {
		return
	}

	a.printErr("%s", err.Error())
	if output := apperr.OutputOf(err); output != "" {
		for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
			fmt.Fprintf(a.stderr, "    %s\n", line)
		}
	}

	switch apperr.KindOf(err) {
	case apperr.KindUsage:
		if _, ok := a.tables.Table(a.target.Name); ok {
			a.printRepoSubcommands(a.target.Name)
			return
		}
		fmt.Fprintln(a.stderr, usageLine)
	case apperr.KindUnknownRepository:
		a.printOut("Open an issue at github.com/pelias/cli if you believe `%s` should have subcommands.", a.target.Name)
		a.printRepoNames()
	case apperr.KindUnknownSubcommand:
		a.printRepoSubcommands(a.target.Name)
	}
}
