package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pelias/cli/internal/apperr"
	"github.com/pelias/cli/internal/cli/shared"
	"github.com/pelias/cli/internal/tables"
	"github.com/pelias/cli/pkg/req"
)

func (a *app) tableSyncer(e *env) *tables.Syncer {
	download := a.deps.Download
	if download == nil {
		download = req.DownloadContext
	}
	return &tables.Syncer{
		Dir:      filepath.Join(e.root, shared.TablesDir),
		Sources:  e.cfg.Tables,
		Download: download,
		Log:      e.log,
		Now:      now,
	}
}

// syncTables fetches configured table sources and drops the ones removed
// from the configuration. Failures are warnings; the number of failed
// sources is returned.
func (a *app) syncTables(ctx context.Context, e *env, force bool) int {
	if len(e.cfg.Tables) == 0 && len(e.store.Tables) == 0 {
		return 0
	}

	failed := 0
	changed := false
	for _, outcome := range a.tableSyncer(e).Sync(ctx, &e.store, force) {
		switch outcome.Status {
		case tables.StatusFailed:
			failed++
			a.warn(fmt.Errorf("table source %s: %w", outcome.Source, outcome.Err))
		case tables.StatusUpdated:
			changed = true
			if outcome.Backup != "" {
				a.printOut("Moved modified %s to %s.", outcome.Path, outcome.Backup)
			}
			if force {
				a.printOut("%s: updated", outcome.Source)
			}
		case tables.StatusUnchanged:
			if force {
				a.printOut("%s: unchanged", outcome.Source)
			}
		case tables.StatusRemoved:
			changed = true
			if outcome.Backup != "" {
				a.printOut("Moved modified %s to %s.", outcome.Path, outcome.Backup)
			}
			a.printOut("%s: removed", outcome.Source)
		}
	}
	if changed {
		e.saveRegistry()
	}
	return failed
}

func (a *app) updateTables(ctx context.Context, args []string) error {
	if err := noExtraArgs(flagUpdateTables, args); err != nil {
		return err
	}
	e, err := a.loadEnv()
	if err != nil {
		return err
	}
	failed := a.syncTables(ctx, e, true)
	if len(e.cfg.Tables) == 0 {
		a.printOut("No table sources configured.")
	}
	if failed > 0 {
		return apperr.New(apperr.KindConfig, fmt.Sprintf("%s could not be updated", pluralize(failed, "table source")), nil)
	}
	return nil
}
