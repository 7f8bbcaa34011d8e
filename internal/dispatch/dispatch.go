// Package dispatch resolves a subcommand against the loaded tables and runs
// it inside a synchronized working copy.
package dispatch

import (
	"context"
	"fmt"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/subcommands"
)

// Resolved is a subcommand ready to run.
type Resolved struct {
	Repository string
	Subcommand string
	subcommands.Command
}

// Executor runs a resolved command in dir with args appended and returns
// the child's exit code.
type Executor interface {
	Execute(ctx context.Context, cmd Resolved, dir string, args []string) (int, error)
}

// Dispatcher resolves and runs subcommands.
type Dispatcher struct {
	Tables   subcommands.Tables
	Executor Executor
}

// Resolve looks up subcommand for the named repository.
func (d *Dispatcher) Resolve(name, subcommand string) (Resolved, error) {
	return Resolve(d.Tables, name, subcommand)
}

// Resolve looks up subcommand in tables for the named repository.
func Resolve(tables subcommands.Tables, name, subcommand string) (Resolved, error) {
	table, ok := tables.Table(name)
	if !ok {
		return Resolved{}, apperr.New(apperr.KindUnknownRepository, fmt.Sprintf("repository `%s` has no subcommands", name), nil)
	}
	cmd, ok := table[subcommand]
	if !ok {
		return Resolved{}, apperr.New(apperr.KindUnknownSubcommand, fmt.Sprintf("subcommand `%s` not found", subcommand), nil)
	}
	return Resolved{Repository: name, Subcommand: subcommand, Command: cmd}, nil
}

// Run executes cmd in dir. A child that exits non-zero yields a dispatch
// failure carrying its exit code.
func (d *Dispatcher) Run(ctx context.Context, cmd Resolved, dir string, args []string) error {
	code, err := d.Executor.Execute(ctx, cmd, dir, args)
	if err != nil {
		return apperr.New(apperr.KindDispatchFailure, fmt.Sprintf("failed to run `%s`", cmd.Subcommand), err)
	}
	if code != 0 {
		failure := apperr.New(apperr.KindDispatchFailure, fmt.Sprintf("`%s` exited with status %d", cmd.Subcommand, code), nil)
		failure.ExitCode = code
		return failure
	}
	return nil
}
