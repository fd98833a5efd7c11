package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"pydefs/internal/pyenv"
)

type Config struct {
	ScanPaths []string `toml:"scan_paths"`
	Exclude   Exclude  `toml:"exclude"`
	Python    Python   `toml:"python"`
	Watch     Watch    `toml:"watch"`
	Store     Store    `toml:"store"`
	Metrics   Metrics  `toml:"metrics"`
	Tracing   Tracing  `toml:"tracing"`
	Workers   int      `toml:"workers"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Python struct {
	Platform string `toml:"platform"`
	Version  []int  `toml:"version"`
	// Scripts lists glob patterns for files treated as entry points
	// rather than importable library modules.
	Scripts []string `toml:"scripts"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// MaxEventsPerSec bounds rescan churn on noisy checkouts.
	MaxEventsPerSec float64 `toml:"max_events_per_sec"`
}

type Store struct {
	Path string `toml:"path"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}

type Tracing struct {
	Endpoint string `toml:"endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if len(cfg.ScanPaths) == 0 {
		cfg.ScanPaths = []string{"."}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "__pycache__", ".venv", "venv", ".tox"}
	}
	if cfg.Python.Platform == "" {
		cfg.Python.Platform = pyenv.Default().Platform
	}
	if len(cfg.Python.Version) == 0 {
		cfg.Python.Version = pyenv.Default().Version
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxEventsPerSec == 0 {
		cfg.Watch.MaxEventsPerSec = 20
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "pydefs.db"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
}

// Env builds the interpreter environment used for conditional imports.
func (cfg *Config) Env() pyenv.Env {
	return pyenv.Env{Platform: cfg.Python.Platform, Version: cfg.Python.Version}
}
