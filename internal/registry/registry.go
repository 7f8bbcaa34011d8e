// Package registry records what pelias has placed in its cache root.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Repo describes a synchronized working copy.
type Repo struct {
	Name           string    `json:"name"`
	Branch         string    `json:"branch"`
	Path           string    `json:"path"`
	ManifestDigest string    `json:"manifest_digest,omitempty"`
	SyncedAt       time.Time `json:"synced_at"`
}

// Table describes a fetched subcommand table source.
type Table struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	LocalPath string    `json:"local_path"`
	Digest    string    `json:"digest"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	Repos  []Repo  `json:"repos"`
	Tables []Table `json:"tables"`
}

func Load(path string) (Store, error) {
	var store Store

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return store, fmt.Errorf("read registry: %w", err)
	}

	if len(data) == 0 {
		return store, nil
	}

	if err := json.Unmarshal(data, &store); err != nil {
		return store, fmt.Errorf("decode registry: %w", err)
	}

	return store, nil
}

func (s Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	repos := append([]Repo{}, s.Repos...)
	sort.Slice(repos, func(i, j int) bool {
		return repos[i].Name < repos[j].Name
	})
	tables := append([]Table{}, s.Tables...)
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Source < tables[j].Source
	})

	data, err := json.MarshalIndent(Store{Repos: repos, Tables: tables}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}

	return nil
}

// UpsertRepo replaces the record with the same name or appends a new one.
func (s *Store) UpsertRepo(repo Repo) {
	for i, existing := range s.Repos {
		if existing.Name == repo.Name {
			s.Repos[i] = repo
			return
		}
	}
	s.Repos = append(s.Repos, repo)
}

func (s *Store) GetRepo(name string) (Repo, bool) {
	for _, repo := range s.Repos {
		if repo.Name == name {
			return repo, true
		}
	}
	return Repo{}, false
}

func (s *Store) RemoveRepo(name string) (Repo, bool) {
	for i, repo := range s.Repos {
		if repo.Name == name {
			s.Repos = append(s.Repos[:i], s.Repos[i+1:]...)
			return repo, true
		}
	}
	return Repo{}, false
}

// UpsertTable replaces the record with the same source, keeping its ID when
// the new one has none.
func (s *Store) UpsertTable(table Table) {
	for i, existing := range s.Tables {
		if existing.Source == table.Source {
			if table.ID == "" {
				table.ID = existing.ID
			}
			s.Tables[i] = table
			return
		}
	}
	s.Tables = append(s.Tables, table)
}

func (s *Store) GetTableBySource(source string) (Table, bool) {
	for _, table := range s.Tables {
		if table.Source == source {
			return table, true
		}
	}
	return Table{}, false
}

func (s *Store) RemoveTableByID(id string) (Table, bool) {
	for i, table := range s.Tables {
		if table.ID == id {
			s.Tables = append(s.Tables[:i], s.Tables[i+1:]...)
			return table, true
		}
	}
	return Table{}, false
}
