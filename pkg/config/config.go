// Package config handles loading and saving mindwork configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/mindwork/config.yaml
//   - Data:    ~/.local/share/mindwork/ (default map database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/mindwork/pkg/layout"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
)

const appName = "mindwork"

// EditorConfig holds editing defaults.
type EditorConfig struct {
	DefaultText string `yaml:"default_text,omitempty"` // Text of nodes added without one
	RootText    string `yaml:"root_text,omitempty"`    // Text of the root of a new map
	UndoLimit   int    `yaml:"undo_limit,omitempty"`   // Max undo entries (0 = unbounded)
}

// StorageConfig says where maps live.
type StorageConfig struct {
	Path    string   `yaml:"path,omitempty"`     // Primary map file or database
	MapName string   `yaml:"map_name,omitempty"` // Map name inside a database
	Mirror  []string `yaml:"mirror,omitempty"`   // Extra files or databases written on every save
}

// WatchConfig controls reloading on external changes.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// Config is the top-level configuration for mw.
type Config struct {
	Layout  layout.Config `yaml:"layout"`
	Editor  EditorConfig  `yaml:"editor,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := mindmap.DefaultOptions()
	return Config{
		Layout: opts.Layout,
		Editor: EditorConfig{
			DefaultText: opts.DefaultText,
			RootText:    opts.RootText,
		},
		Watch: WatchConfig{
			Debounce:     200 * time.Millisecond,
			PollInterval: 2 * time.Second,
		},
	}
}

// ConfigDir returns the XDG config directory for mindwork.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for mindwork.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDatabasePath returns the database used by -db without a path.
func DefaultDatabasePath() string {
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "maps.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	for i := range cfg.Storage.Mirror {
		cfg.Storage.Mirror[i] = expandHome(cfg.Storage.Mirror[i])
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate rejects values the editor cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Layout.NodeSpacing <= 0:
		return fmt.Errorf("layout.node_spacing must be positive, got %g", c.Layout.NodeSpacing)
	case c.Layout.LayerSpacing <= 0:
		return fmt.Errorf("layout.layer_spacing must be positive, got %g", c.Layout.LayerSpacing)
	case c.Editor.UndoLimit < 0:
		return fmt.Errorf("editor.undo_limit must not be negative, got %d", c.Editor.UndoLimit)
	case c.Watch.Debounce < 0:
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// EditorOptions converts the config into editor options. Empty texts fall
// back to the editor defaults.
func (c Config) EditorOptions() mindmap.Options {
	opts := mindmap.DefaultOptions()
	opts.Layout = c.Layout
	opts.UndoLimit = c.Editor.UndoLimit
	if c.Editor.DefaultText != "" {
		opts.DefaultText = c.Editor.DefaultText
	}
	if c.Editor.RootText != "" {
		opts.RootText = c.Editor.RootText
	}
	return opts
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
