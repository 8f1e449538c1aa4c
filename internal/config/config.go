package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as the canonical display
	// zone for all event times (e.g. "Asia/Tokyo").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language selects the feed set and roster ordering: "ja" or "en".
	Language string `yaml:"language" json:"language"`

	// BaseURL is the root under which the per-language feed
	// directories (ja/, en/) and data/talents.csv live.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// RosterURL overrides the talent CSV location. Empty means
	// BaseURL + "/data/talents.csv".
	RosterURL string `yaml:"roster_url" json:"roster_url"`

	// CacheDir is the directory for the conditional-GET feed cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for periodic reloads of the active selection.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Asia/Tokyo",
		Language:    "ja",
		BaseURL:     "https://nijical.com",
		CacheDir:    "./var/ics-cache",
		RefreshCron: "*/15 * * * *",
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so
// that partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	switch c.Language {
	case "ja", "en":
	default:
		c.Language = "ja"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://nijical.com"
	}
	if c.RosterURL == "" {
		c.RosterURL = strings.TrimRight(c.BaseURL, "/") + "/data/talents.csv"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory if
//     needed, write a default config with 0600 perms, return it.
//   - If the file exists: read, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so the
				// caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures the parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".streamcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
