package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultDebounce     = 400 * time.Millisecond
	DefaultMenuSize     = 10
	DefaultMaxResults   = 100
	DefaultStartPage    = "docgrip:start"
	DefaultLogFile      = "docgrip.log"
	DefaultLogLevel     = "info"
	configFileName      = "config.toml"
	configDirectoryName = "docgrip"
)

// Config represents the application configuration
type Config struct {
	Version     int             `toml:"version"`
	DocsetPaths []string        `toml:"docset_paths"`
	Watch       bool            `toml:"watch"`
	Search      SearchSettings  `toml:"search"`
	History     HistorySettings `toml:"history"`
	UI          UISettings      `toml:"ui"`
	Log         LogSettings     `toml:"log"`
}

// SearchSettings tunes the search pipeline
type SearchSettings struct {
	DebounceMS int `toml:"debounce_ms"` // quiet period before the top result opens
	MaxResults int `toml:"max_results"`
}

// HistorySettings tunes the back/forward menus
type HistorySettings struct {
	MenuSize int `toml:"menu_size"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	StartPage             string `toml:"start_page"`
	OpenNewTabAfterActive bool   `toml:"open_new_tab_after_active"`
}

// LogSettings controls where the log file goes
type LogSettings struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Debounce returns the debounce delay as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// Normalize replaces missing or invalid values with defaults
func (c *Config) Normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Search.DebounceMS <= 0 {
		c.Search.DebounceMS = int(DefaultDebounce / time.Millisecond)
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = DefaultMaxResults
	}
	if c.History.MenuSize <= 0 {
		c.History.MenuSize = DefaultMenuSize
	}
	if c.UI.StartPage == "" {
		c.UI.StartPage = DefaultStartPage
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	for i, p := range c.DocsetPaths {
		c.DocsetPaths[i] = expandHome(p)
	}
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

type configService struct {
	filePath string
}

// NewConfigService creates a config service backed by the user config directory
func NewConfigService() ConfigService {
	return &configService{filePath: filepath.Join(configDir(), configFileName)}
}

// NewConfigServiceAt creates a config service backed by an explicit file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration, falling back to defaults when the file is missing
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	cfg := DefaultConfig()
	cfg.DocsetPaths = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	if len(cfg.DocsetPaths) == 0 {
		cfg.DocsetPaths = DefaultConfig().DocsetPaths
	}
	cfg.Normalize()

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write config file %s", path)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Version:     1,
		DocsetPaths: []string{filepath.Join(dataDir(), "docsets")},
		Watch:       true,
		UI: UISettings{
			OpenNewTabAfterActive: true,
		},
	}
	cfg.Normalize()
	return cfg
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirectoryName)
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, configDirectoryName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", configDirectoryName)
}

func expandHome(p string) string {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
