// Package subcommands loads the per-repository tables that map a short
// subcommand name to the command line it runs.
//
// A table lives in one file per repository; the repository name is the file
// name without its extension. JSON, YAML and TOML files are accepted:
//
//	{
//	  "start": {"description": "Start the API server.", "command": "npm start"}
//	}
package subcommands

import (
	"errors"
	"sort"
)

// Command is a single runnable entry of a table.
type Command struct {
	Description string `json:"description" yaml:"description" toml:"description"`
	Command     string `json:"command" yaml:"command" toml:"command"`
}

// Table maps subcommand names to commands for one repository.
type Table map[string]Command

// Names returns the subcommand names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables maps repository names to their tables.
type Tables map[string]Table

// Repositories returns the repository names in sorted order.
func (t Tables) Repositories() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns the table registered for repo.
func (t Tables) Table(repo string) (Table, bool) {
	table, ok := t[repo]
	return table, ok
}

// Merge overlays other onto t per subcommand; entries in other win.
func (t Tables) Merge(other Tables) {
	for repo, table := range other {
		dst, ok := t[repo]
		if !ok {
			dst = make(Table, len(table))
			t[repo] = dst
		}
		for name, cmd := range table {
			dst[name] = cmd
		}
	}
}

// Loader produces a set of tables from some storage.
type Loader interface {
	Load() (Tables, error)
}

// Layered merges the output of several loaders in order. Later loaders
// override earlier ones per subcommand.
type Layered []Loader

// Load runs every loader and merges the results. Errors are aggregated; the
// tables loaded successfully are still returned.
func (l Layered) Load() (Tables, error) {
	merged := make(Tables)
	var errs []error
	for _, loader := range l {
		tables, err := loader.Load()
		if err != nil {
			errs = append(errs, err)
		}
		merged.Merge(tables)
	}
	return merged, errors.Join(errs...)
}
