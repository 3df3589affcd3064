// Package config handles project discovery and the stevedore.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the project file that marks a stevedore project root.
const FileName = "stevedore.toml"

// ErrNoProject indicates no stevedore.toml was found walking up from cwd.
var ErrNoProject = errors.New("no stevedore.toml found (run 'stevedore init' to create a project)")

// Config is the project configuration. Zero values fall back to defaults;
// command-line flags override everything here.
type Config struct {
	// Root is the directory holding stevedore.toml. Not part of the file.
	Root string `toml:"-"`

	Paths    Paths    `toml:"paths"`
	Fleet    Fleet    `toml:"fleet"`
	Build    Build    `toml:"build"`
	Output   Output   `toml:"output"`
	Snapshot Snapshot `toml:"snapshot"`
	Repo     Repo     `toml:"repo"`
	Secrets  Secrets  `toml:"secrets"`
	Notify   Notify   `toml:"notify"`
}

// Paths names the project's directory layout, relative to Root.
type Paths struct {
	// Base is the shared manifest base tree.
	Base string `toml:"base"`
	// Overlays holds one subtree per cluster group.
	Overlays string `toml:"overlays"`
	// Output is where built manifests land.
	Output string `toml:"output"`
	// Workdir is an explicit ephemeral workspace; empty uses system temp.
	Workdir string `toml:"workdir"`
}

// Fleet locates and describes the source-of-truth table.
type Fleet struct {
	File         string `toml:"file"`
	NameColumn   string `toml:"name_column"`
	GroupColumn  string `toml:"group_column"`
	TagsColumn   string `toml:"tags_column"`
	TagDelimiter string `toml:"tag_delimiter"`
}

// Build configures the external manifest-build tool.
type Build struct {
	// Command overrides the whole build command line when non-empty.
	Command []string `toml:"command"`
	// TimeoutSeconds bounds one build; zero uses the built-in default.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// Verify parses every built manifest for YAML well-formedness.
	Verify bool `toml:"verify"`
}

// Output selects the manifest placement mode: none, group, or cluster.
type Output struct {
	Layout string `toml:"layout"`
}

// Snapshot configures output retention.
type Snapshot struct {
	// Enabled snapshots the output dir before each hydration batch.
	Enabled bool `toml:"enabled"`
	// Keep is how many snapshots to retain; zero uses the default.
	Keep int `toml:"keep"`
}

// Repo points at the git repository carrying the manifest trees.
type Repo struct {
	URL    string `toml:"url"`
	Branch string `toml:"branch"`
	Dir    string `toml:"dir"`
}

// Secrets lists SOPS-encrypted attribute files, relative to Root.
type Secrets struct {
	Files []string `toml:"files"`
}

// Notify configures batch completion notifications.
type Notify struct {
	WebhookURL string `toml:"webhook_url"`
}

// Default returns the configuration used when no project file exists.
// The directory names mirror the layout the hydrator has always used.
func Default() *Config {
	return &Config{
		Paths: Paths{
			Base:     "base_library",
			Overlays: "overlays",
			Output:   "output",
		},
		Fleet: Fleet{
			File: "fleet.csv",
		},
		Output: Output{
			Layout: "group",
		},
		Snapshot: Snapshot{
			Keep: 20,
		},
		Repo: Repo{
			Branch: "main",
		},
	}
}

// FindRoot walks upward from dir looking for stevedore.toml.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// Load discovers the project root from the working directory and parses
// its file. Without a project file it returns defaults rooted at cwd.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	root, err := FindRoot(cwd)
	if errors.Is(err, ErrNoProject) {
		cfg := Default()
		cfg.Root = cwd
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom parses dir/stevedore.toml over the defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.Root, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return cfg, nil
}

// resolve roots a possibly-relative path at the project root.
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

// BaseDir returns the absolute base tree path.
func (c *Config) BaseDir() string { return c.resolve(c.Paths.Base) }

// OverlaysDir returns the absolute overlays root path.
func (c *Config) OverlaysDir() string { return c.resolve(c.Paths.Overlays) }

// OutputDir returns the absolute output root path.
func (c *Config) OutputDir() string { return c.resolve(c.Paths.Output) }

// WorkDir returns the absolute explicit workspace path, or "" for temp.
func (c *Config) WorkDir() string { return c.resolve(c.Paths.Workdir) }

// FleetFile returns the absolute source-of-truth path.
func (c *Config) FleetFile() string { return c.resolve(c.Fleet.File) }

// RepoDir returns where the manifest repo is synced to.
func (c *Config) RepoDir() string {
	if c.Repo.Dir == "" {
		return filepath.Join(c.Root, ".stevedore", "repo")
	}
	return c.resolve(c.Repo.Dir)
}

// SnapshotsDir returns where output snapshots are kept.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.Root, ".stevedore", "snapshots")
}

// LocksDir returns where operation locks live.
func (c *Config) LocksDir() string {
	return filepath.Join(c.Root, ".stevedore", "locks")
}

// SecretsFiles returns the absolute paths of configured secrets files.
func (c *Config) SecretsFiles() []string {
	files := make([]string, 0, len(c.Secrets.Files))
	for _, f := range c.Secrets.Files {
		files = append(files, c.resolve(f))
	}
	return files
}
