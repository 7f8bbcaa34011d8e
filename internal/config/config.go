// Package config loads the optional pelias configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelias/cli/internal/target"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the cache root.
const FileName = ".pelias.yml"

// Provider names accepted by the scm key.
const (
	SCMGit   = "git"
	SCMGoGit = "go-git"
)

// Environment variables that override file values.
const (
	EnvConfig   = "PELIAS_CONFIG"
	EnvLogLevel = "PELIAS_LOG_LEVEL"
	EnvSCM      = "PELIAS_SCM"
)

// Config is the YAML structure of the configuration file.
type Config struct {
	RemoteBase     string        `yaml:"remote_base"`
	DefaultBranch  string        `yaml:"default_branch"`
	SCM            string        `yaml:"scm"`
	Install        InstallConfig `yaml:"install"`
	Tables         []string      `yaml:"tables"`
	SubcommandDirs []string      `yaml:"subcommand_dirs"`
	LogLevel       string        `yaml:"log_level"`
}

// InstallConfig describes how dependencies are installed after a sync.
type InstallConfig struct {
	Command  string `yaml:"command"`
	Manifest string `yaml:"manifest"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		RemoteBase:    "https://github.com/pelias",
		DefaultBranch: "master",
		SCM:           SCMGit,
		Install: InstallConfig{
			Command:  "npm install",
			Manifest: "package.json",
		},
		LogLevel: "warn",
	}
}

// Path returns the config file location for the given cache root, honoring
// the PELIAS_CONFIG override.
func Path(root string) string {
	if override := os.Getenv(EnvConfig); override != "" {
		return override
	}
	return filepath.Join(root, FileName)
}

// Load reads the config file at path. A missing file yields the defaults.
// Keys left empty in the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(file)
	cfg.resolvePaths(filepath.Dir(path))

	return cfg, nil
}

func (c *Config) merge(file Config) {
	if v := strings.TrimSpace(file.RemoteBase); v != "" {
		c.RemoteBase = v
	}
	if v := strings.TrimSpace(file.DefaultBranch); v != "" {
		c.DefaultBranch = v
	}
	if v := strings.TrimSpace(file.SCM); v != "" {
		c.SCM = v
	}
	if v := strings.TrimSpace(file.Install.Command); v != "" {
		c.Install.Command = v
	}
	if v := strings.TrimSpace(file.Install.Manifest); v != "" {
		c.Install.Manifest = v
	}
	if v := strings.TrimSpace(file.LogLevel); v != "" {
		c.LogLevel = v
	}
	c.Tables = append(c.Tables, file.Tables...)
	c.SubcommandDirs = append(c.SubcommandDirs, file.SubcommandDirs...)
}

// resolvePaths expands environment variables in local paths and makes
// relative ones relative to the config file directory.
func (c *Config) resolvePaths(base string) {
	for i, dir := range c.SubcommandDirs {
		c.SubcommandDirs[i] = resolvePath(base, dir)
	}
	for i, source := range c.Tables {
		if isRemote(source) {
			continue
		}
		c.Tables[i] = resolvePath(base, source)
	}
}

func resolvePath(base, path string) string {
	expanded := os.ExpandEnv(strings.TrimSpace(path))
	if strings.HasPrefix(expanded, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(home, expanded[2:])
		}
	}
	if expanded == "" || filepath.IsAbs(expanded) {
		return expanded
	}
	return filepath.Join(base, expanded)
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ApplyEnv overrides values from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvSCM)); v != "" {
		c.SCM = v
	}
}

// Validate checks that the configuration can drive a sync.
func (c *Config) Validate() error {
	var errs []error
	switch c.SCM {
	case SCMGit, SCMGoGit:
	default:
		errs = append(errs, fmt.Errorf("scm: unsupported provider %q (want %q or %q)", c.SCM, SCMGit, SCMGoGit))
	}
	if strings.TrimSpace(c.RemoteBase) == "" {
		errs = append(errs, errors.New("remote_base is required"))
	}
	if err := target.ValidateBranch(c.DefaultBranch); err != nil {
		errs = append(errs, fmt.Errorf("default_branch: %w", err))
	}
	if strings.TrimSpace(c.Install.Command) == "" {
		errs = append(errs, errors.New("install.command is required"))
	}
	if strings.ContainsAny(c.Install.Manifest, `/\`) {
		errs = append(errs, fmt.Errorf("install.manifest %q must be a file name", c.Install.Manifest))
	}
	return errors.Join(errs...)
}

// RepositoryURL derives the clone URL of a repository.
func (c *Config) RepositoryURL(name string) string {
	return strings.TrimRight(c.RemoteBase, "/") + "/" + name
}
