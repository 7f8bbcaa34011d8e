package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/cli/shared"
	"github.com/pelias/cli/internal/dispatch"
	"github.com/pelias/cli/internal/install"
	"github.com/pelias/cli/internal/reposync"
	"github.com/pelias/cli/internal/scm"
	"github.com/pelias/cli/internal/target"
	log "github.com/sirupsen/logrus"
)

// invoke parses args, resolves the subcommand, synchronizes the repository
// and runs the subcommand in it.
func (a *app) invoke(ctx context.Context, args []string) error {
	// Malformed input fails before the cache root is touched.
	if _, err := target.Parse(args, ""); err != nil {
		return err
	}

	e, err := a.loadEnv()
	if err != nil {
		return err
	}
	parsed, err := target.Parse(args, e.cfg.DefaultBranch)
	if err != nil {
		return err
	}
	a.target = parsed.Target
	tgt := parsed.Target

	a.syncTables(ctx, e, false)
	tables := a.loadTables(e)

	if parsed.MissingSubcommand() {
		if _, ok := tables.Table(tgt.Name); !ok {
			_, err := dispatch.Resolve(tables, tgt.Name, "")
			return err
		}
		return apperr.Usagef("missing subcommand for %s", tgt.Name)
	}

	dispatcher := &dispatch.Dispatcher{Tables: tables, Executor: a.executor(e)}
	cmd, err := dispatcher.Resolve(tgt.Name, tgt.Subcommand)
	if err != nil {
		return err
	}

	res, err := a.sync(ctx, e, tgt)
	if err != nil {
		return err
	}
	a.recordRepo(e, tgt, res)

	e.log.WithFields(log.Fields{
		"repo":       tgt.Name,
		"subcommand": tgt.Subcommand,
		"command":    cmd.Command.Command,
	}).Debug("dispatching")
	return dispatcher.Run(ctx, cmd, res.Path, tgt.SubcommandArgs)
}

// sync runs the synchronizer with interrupts cancelling the git and install
// subprocesses. Dispatch handles signals on its own.
func (a *app) sync(ctx context.Context, e *env, tgt target.Target) (reposync.Result, error) {
	provider := a.deps.SCM
	if provider == nil {
		var err error
		provider, err = scm.New(e.cfg.SCM, e.log)
		if err != nil {
			return reposync.Result{}, apperr.New(apperr.KindConfig, "invalid configuration", err)
		}
	}
	installer := a.deps.Installer
	if installer == nil {
		installer = install.NewCommand(e.cfg.Install.Command, e.cfg.Install.Manifest, e.log)
	}

	syncCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	synchronizer := &reposync.Synchronizer{
		Root:          e.root,
		DefaultBranch: e.cfg.DefaultBranch,
		URL:           e.cfg.RepositoryURL,
		SCM:           provider,
		Installer:     installer,
		Reporter:      a,
		Log:           e.log,
	}
	return synchronizer.Sync(syncCtx, tgt.Name, tgt.Branch)
}

func (a *app) executor(e *env) dispatch.Executor {
	if a.deps.Executor != nil {
		return a.deps.Executor
	}
	shell := dispatch.NewShell(e.log)
	shell.Stdout = a.stdout
	shell.Stderr = a.stderr
	if a.deps.Stdin != nil {
		shell.Stdin = a.deps.Stdin
	}
	return shell
}

func (a *app) recordRepo(e *env, tgt target.Target, res reposync.Result) {
	digest, err := shared.FileDigest(filepath.Join(res.Path, e.cfg.Install.Manifest))
	if err != nil {
		digest = ""
	}
	e.store.UpsertRepo(registryRepo(tgt, res, digest))
	e.saveRegistry()
}
