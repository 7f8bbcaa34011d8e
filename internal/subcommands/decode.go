package subcommands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Supported table formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Decode errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrInvalidTable      = errors.New("invalid subcommand table")
)

// FormatOf returns the table format implied by the extension of path.
func FormatOf(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yml", ".yaml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// RepositoryName derives the repository name a table file describes.
func RepositoryName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// field is a decoded value that remembers whether it was present and
// whether it was a string.
type field struct {
	present  bool
	isString bool
	value    string
}

type rawCommand struct {
	description field
	command     field
}

// Decode parses and validates a table file. path is only used to pick the
// format and label errors.
func Decode(path string, data []byte) (Table, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	var (
		raw map[string]rawCommand
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = decodeJSON(data)
	case FormatYAML:
		raw, err = decodeYAML(data)
	case FormatTOML:
		raw, err = decodeTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTable, path, err)
	}

	table, err := validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTable, path, err)
	}
	return table, nil
}

func validate(raw map[string]rawCommand) (Table, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	table := make(Table, len(raw))
	var errs []error
	for _, name := range names {
		entry := raw[name]
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("subcommand name is empty"))
			continue
		}
		if !entry.description.present {
			errs = append(errs, fmt.Errorf("%s: description is required", name))
		} else if !entry.description.isString {
			errs = append(errs, fmt.Errorf("%s: description must be a string", name))
		}
		if !entry.command.present {
			errs = append(errs, fmt.Errorf("%s: command is required", name))
		} else if !entry.command.isString {
			errs = append(errs, fmt.Errorf("%s: command must be a string", name))
		} else if strings.TrimSpace(entry.command.value) == "" {
			errs = append(errs, fmt.Errorf("%s: command is empty", name))
		}
		table[name] = Command{Description: entry.description.value, Command: entry.command.value}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

func decodeJSON(data []byte) (map[string]rawCommand, error) {
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	raw := make(map[string]rawCommand, len(doc))
	for name, fields := range doc {
		var entry rawCommand
		for key, value := range fields {
			var f field
			f.present = true
			var s string
			if bytes.HasPrefix(bytes.TrimSpace(value), []byte(`"`)) && json.Unmarshal(value, &s) == nil {
				f.isString = true
				f.value = s
			}
			switch key {
			case "description":
				entry.description = f
			case "command":
				entry.command = f
			default:
				return nil, fmt.Errorf("%s: unknown field %q", name, key)
			}
		}
		raw[name] = entry
	}
	return raw, nil
}

func decodeYAML(data []byte) (map[string]rawCommand, error) {
	type yamlCommand struct {
		Description yaml.Node `yaml:"description"`
		Command     yaml.Node `yaml:"command"`
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc map[string]yamlCommand
	if err := dec.Decode(&doc); err != nil {
		// an empty document decodes to nothing
		if errors.Is(err, io.EOF) {
			return map[string]rawCommand{}, nil
		}
		return nil, err
	}

	raw := make(map[string]rawCommand, len(doc))
	for name, entry := range doc {
		raw[name] = rawCommand{
			description: yamlField(entry.Description),
			command:     yamlField(entry.Command),
		}
	}
	return raw, nil
}

func yamlField(node yaml.Node) field {
	if node.Kind == 0 {
		return field{}
	}
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
		return field{present: true}
	}
	return field{present: true, isString: true, value: node.Value}
}

func decodeTOML(data []byte) (map[string]rawCommand, error) {
	var doc map[string]map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}

	raw := make(map[string]rawCommand, len(doc))
	for name, fields := range doc {
		var entry rawCommand
		for key, value := range fields {
			f := field{present: true}
			if s, ok := value.(string); ok {
				f.isString = true
				f.value = s
			}
			switch key {
			case "description":
				entry.description = f
			case "command":
				entry.command = f
			default:
				return nil, fmt.Errorf("%s: unknown field %q", name, key)
			}
		}
		raw[name] = entry
	}
	return raw, nil
}
