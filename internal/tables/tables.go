// Package tables fetches configured subcommand table sources into the cache
// root so they can be loaded like any other table directory.
package tables

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pelias/cli/internal/cli/shared"
	"github.com/pelias/cli/internal/registry"
	"github.com/pelias/cli/internal/subcommands"
	"github.com/pelias/cli/pkg/req"
	log "github.com/sirupsen/logrus"
)

// Status reports what happened to a source during Sync.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	// StatusRemoved marks a recorded source that is no longer configured.
	StatusRemoved Status = "removed"
)

// Outcome is the result of syncing one source.
type Outcome struct {
	Source string
	Path   string
	Status Status
	// Backup is set when a locally modified copy was moved aside.
	Backup string
	Err    error
}

// Syncer copies table sources into Dir, decoding compressed ones.
type Syncer struct {
	Dir      string
	Sources  []string
	Download shared.DownloadFunc
	Log      *log.Entry
	Now      func() time.Time
}

// Sync first drops recorded sources that are no longer configured, then
// fetches every source whose decoded copy is missing, or every source when
// force is set, and records the results in store. A failing source does not
// stop the others.
func (s *Syncer) Sync(ctx context.Context, store *registry.Store, force bool) []Outcome {
	outcomes := s.prune(store)
	seen := make(map[string]string)

	for _, source := range s.Sources {
		outcome := Outcome{Source: source}

		encoding, fileName, err := sourceFile(source)
		if err != nil {
			outcomes = append(outcomes, failed(outcome, err))
			continue
		}
		if previous, ok := seen[fileName]; ok {
			outcomes = append(outcomes, failed(outcome, fmt.Errorf("%s is also provided by %s", fileName, previous)))
			continue
		}
		seen[fileName] = source
		outcome.Path = filepath.Join(s.Dir, fileName)

		if !force {
			if _, err := os.Stat(outcome.Path); err == nil {
				outcome.Status = StatusSkipped
				outcomes = append(outcomes, outcome)
				continue
			}
		}

		outcome, err = s.fetch(ctx, store, outcome, encoding)
		if err != nil {
			outcome = failed(outcome, err)
		}
		if s.Log != nil {
			s.Log.WithFields(log.Fields{"source": source, "status": outcome.Status}).Debug("table source synced")
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *Syncer) fetch(ctx context.Context, store *registry.Store, outcome Outcome, encoding string) (Outcome, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return outcome, fmt.Errorf("create table dir: %w", err)
	}

	raw := outcome.Source
	if shared.IsRemotePath(outcome.Source) {
		raw = filepath.Join(s.Dir, "."+filepath.Base(outcome.Path)+".download")
		defer os.Remove(raw)
		if s.Download == nil {
			return outcome, errors.New("no downloader configured")
		}
		if _, err := s.Download(ctx, outcome.Source, raw); err != nil {
			return outcome, err
		}
	}

	staging := filepath.Join(s.Dir, "."+filepath.Base(outcome.Path)+".staging")
	defer os.Remove(staging)
	if err := req.DecodeFile(encoding, raw, staging); err != nil {
		return outcome, fmt.Errorf("decode %s: %w", outcome.Source, err)
	}

	data, err := os.ReadFile(staging)
	if err != nil {
		return outcome, fmt.Errorf("read decoded table: %w", err)
	}
	if _, err := subcommands.Decode(outcome.Path, data); err != nil {
		return outcome, err
	}

	digest, err := shared.FileDigest(staging)
	if err != nil {
		return outcome, err
	}

	entry, known := store.GetTableBySource(outcome.Source)
	if known && entry.Digest == digest {
		if match, _, err := shared.VerifyDigest(outcome.Path, digest); err == nil && match {
			outcome.Status = StatusUnchanged
			return outcome, nil
		}
	}

	if known {
		backup, err := shared.BackupIfDigestMismatch(outcome.Path, entry.Digest)
		if err != nil {
			return outcome, err
		}
		outcome.Backup = backup
	}
	if err := os.Rename(staging, outcome.Path); err != nil {
		return outcome, fmt.Errorf("install table: %w", err)
	}

	store.UpsertTable(registry.Table{
		ID:        shared.GenerateEntryID(outcome.Source),
		Source:    outcome.Source,
		LocalPath: outcome.Path,
		Digest:    digest,
		UpdatedAt: s.now(),
	})
	outcome.Status = StatusUpdated
	return outcome, nil
}

// prune removes registry entries, and their decoded copies, for sources that
// were dropped from the configuration. A copy still recorded for a configured
// source is left alone, and a hand-edited copy is moved aside instead of
// being deleted.
func (s *Syncer) prune(store *registry.Store) []Outcome {
	configured := make(map[string]bool, len(s.Sources))
	for _, source := range s.Sources {
		configured[source] = true
	}
	inUse := make(map[string]bool)
	var stale []registry.Table
	for _, table := range store.Tables {
		if configured[table.Source] {
			inUse[table.LocalPath] = true
			continue
		}
		stale = append(stale, table)
	}

	var outcomes []Outcome
	for _, table := range stale {
		outcome := Outcome{Source: table.Source, Path: table.LocalPath, Status: StatusRemoved}
		if !inUse[table.LocalPath] && s.owns(table.LocalPath) {
			backup, err := shared.BackupIfDigestMismatch(table.LocalPath, table.Digest)
			if err != nil {
				outcomes = append(outcomes, failed(outcome, err))
				continue
			}
			outcome.Backup = backup
			if backup == "" {
				if err := os.Remove(table.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					outcomes = append(outcomes, failed(outcome, fmt.Errorf("remove table copy: %w", err)))
					continue
				}
			}
		}
		store.RemoveTableByID(table.ID)
		if s.Log != nil {
			s.Log.WithFields(log.Fields{"source": table.Source, "path": table.LocalPath}).Debug("table source removed")
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// owns reports whether path is a file directly inside Dir.
func (s *Syncer) owns(path string) bool {
	return path != "" && filepath.Clean(filepath.Dir(path)) == filepath.Clean(s.Dir)
}

func (s *Syncer) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func failed(outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = err
	return outcome
}

// sourceFile derives the encoding and decoded file name of a source. The
// decoded name must be a supported table file such as api.json.
func sourceFile(source string) (string, string, error) {
	base := filepath.Base(source)
	if shared.IsRemotePath(source) {
		u, err := url.Parse(source)
		if err != nil {
			return "", "", fmt.Errorf("parse %s: %w", source, err)
		}
		base = path.Base(u.Path)
	}

	encoding, name := req.EncodingOf(base)
	if _, ok := subcommands.FormatOf(name); !ok {
		return "", "", fmt.Errorf("%w: %s", subcommands.ErrUnsupportedFormat, source)
	}
	if err := validRepositoryFile(name); err != nil {
		return "", "", err
	}
	return encoding, name, nil
}

func validRepositoryFile(name string) error {
	repo := subcommands.RepositoryName(name)
	if repo == "" || repo[0] == '.' {
		return fmt.Errorf("table file %q does not name a repository", name)
	}
	return nil
}
