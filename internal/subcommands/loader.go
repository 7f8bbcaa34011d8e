package subcommands

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed defaults/*.json
var defaultsFS embed.FS

// Defaults returns a loader for the tables shipped with the binary.
func Defaults() Loader {
	return FSLoader{FS: defaultsFS, Dir: "defaults"}
}

// Dir returns a loader reading table files from a directory on disk.
func Dir(dir string) Loader {
	return FSLoader{FS: os.DirFS(dir), Dir: ".", Label: dir}
}

// FSLoader reads one table file per repository from Dir within FS.
// A missing directory yields no tables and no error.
type FSLoader struct {
	FS    fs.FS
	Dir   string
	Label string
}

// Load decodes every supported file in the directory. Files that fail to
// decode are reported together; the remaining tables are still returned.
func (l FSLoader) Load() (Tables, error) {
	tables := make(Tables)

	entries, err := fs.ReadDir(l.FS, l.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tables, nil
		}
		return tables, fmt.Errorf("read table directory %s: %w", l.label(), err)
	}

	sources := make(map[string]string)
	var loadErrors []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := FormatOf(name); !ok {
			continue
		}

		filePath := path.Join(l.Dir, name)
		data, err := fs.ReadFile(l.FS, filePath)
		if err != nil {
			loadErrors = append(loadErrors, fmt.Errorf("read %s: %w", l.display(name), err))
			continue
		}

		table, err := Decode(l.display(name), data)
		if err != nil {
			loadErrors = append(loadErrors, err)
			continue
		}

		repo := RepositoryName(name)
		if previous, ok := sources[repo]; ok {
			loadErrors = append(loadErrors, fmt.Errorf(
				"duplicate table for repository %q: %s and %s", repo, previous, l.display(name),
			))
			continue
		}
		sources[repo] = l.display(name)
		tables[repo] = table
	}

	return tables, errors.Join(loadErrors...)
}

func (l FSLoader) label() string {
	if l.Label != "" {
		return l.Label
	}
	return l.Dir
}

func (l FSLoader) display(name string) string {
	if l.Label != "" {
		return path.Join(l.Label, name)
	}
	return path.Join(l.Dir, name)
}
