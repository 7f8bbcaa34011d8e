package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelias/cli/internal/registry"
	"github.com/pelias/cli/internal/reposync"
	"github.com/pelias/cli/internal/target"
)

var now = func() time.Time { return time.Now().UTC() }

func registryRepo(tgt target.Target, res reposync.Result, manifestDigest string) registry.Repo {
	return registry.Repo{
		Name:           tgt.Name,
		Branch:         tgt.Branch,
		Path:           res.Path,
		ManifestDigest: manifestDigest,
		SyncedAt:       now(),
	}
}

// list prints every repository with a subcommand table, along with the
// branch and time of its last sync when it is cached. Registry entries whose
// working copy was deleted are dropped first.
func (a *app) list(args []string) error {
	if err := noExtraArgs(flagList, args); err != nil {
		return err
	}
	e, err := a.loadEnv()
	if err != nil {
		return err
	}
	tables := a.loadTables(e)
	if a.pruneRepos(e) {
		e.saveRegistry()
	}

	a.printOut("Here are the available repos:")
	for _, repo := range tables.Repositories() {
		cached, ok := e.store.GetRepo(repo)
		if !ok {
			a.printOut("    %s (not cached, %s)", repo, pluralize(len(tables[repo]), "subcommand"))
			continue
		}
		a.printOut("    %s (branch %s, synced %s, %s)",
			repo, cached.Branch, cached.SyncedAt.Format(time.RFC3339), pluralize(len(tables[repo]), "subcommand"))
	}

	for _, cached := range e.store.Repos {
		if _, ok := tables.Table(cached.Name); !ok {
			a.printOut("    %s (branch %s, synced %s, no subcommands)",
				cached.Name, cached.Branch, cached.SyncedAt.Format(time.RFC3339))
		}
	}
	return nil
}

func (a *app) pruneRepos(e *env) bool {
	var gone []string
	for _, cached := range e.store.Repos {
		if _, err := os.Stat(cached.Path); errors.Is(err, os.ErrNotExist) {
			gone = append(gone, cached.Name)
		}
	}
	for _, name := range gone {
		e.store.RemoveRepo(name)
		e.log.WithField("repo", name).Debug("dropped registry entry without a working copy")
	}
	return len(gone) > 0
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
