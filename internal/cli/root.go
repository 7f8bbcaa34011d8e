package cli

import (
	"context"
	"strings"

	"github.com/pelias/cli/internal/apperr"
	"github.com/spf13/cobra"
)

// Meta flags are only recognized as the first argument so that anything
// after the repository reaches the subcommand untouched.
const (
	flagHelp         = "--help"
	flagVersion      = "--version"
	flagList         = "--list"
	flagUpdateTables = "--update-tables"
)

// newRootCmd creates the root pelias command.
func newRootCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "pelias <repo>[#<branch>] <subcommand> [args...]",
		Short:              "Run commands inside automatically synchronized Pelias repositories",
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.route(ctx, args)
		},
	}
}

func (a *app) route(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.invoke(ctx, args)
	}

	switch first := args[0]; first {
	case flagHelp:
		return a.help()
	case flagVersion:
		return a.version(args[1:])
	case flagList:
		return a.list(args[1:])
	case flagUpdateTables:
		return a.updateTables(ctx, args[1:])
	default:
		if strings.HasPrefix(first, "-") {
			return apperr.Usagef("unknown flag %s", first)
		}
		return a.invoke(ctx, args)
	}
}

func noExtraArgs(flag string, args []string) error {
	if len(args) > 0 {
		return apperr.Usagef("%s takes no arguments", flag)
	}
	return nil
}
