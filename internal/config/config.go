// Package config loads the on-disk JSON bootstrap file: just
// enough to find the database and the archive/workspace paths. Everything
// else durable lives in the store's config table ("ownership of
// configuration" design note), accessed with the *store.Store methods
// GetConfig/SetConfig/DeleteConfig.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ArchiveConfig points at a local or remote mirror root.
type ArchiveConfig struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// DatabaseConfig is the Postgres connection profile.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"db"`
	User     string `json:"user"`
	Password string `json:"password"`
	Extra    string `json:"extra"`
}

// DSN renders d as a postgres:// connection string consumable by
// pgxpool.ParseConfig.
func (d DatabaseConfig) DSN() string {
	port := d.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, port, d.Name)
	if d.Extra != "" {
		dsn += "&" + d.Extra
	}
	return dsn
}

// SynchrotronConfig is the synchrotron-specific bootstrap block.
type SynchrotronConfig struct {
	SourceKeyringDir string `json:"SourceKeyringDir"`
}

// Config is the top-level bootstrap document.
type Config struct {
	CacheLocation        string            `json:"CacheLocation"`
	Workspace            string            `json:"Workspace"`
	RepoName             string            `json:"RepoName"`
	Archive              ArchiveConfig     `json:"Archive"`
	Database             DatabaseConfig    `json:"Database"`
	Synchrotron          SynchrotronConfig `json:"Synchrotron"`
	TrustedGpgKeyringDir string            `json:"TrustedGpgKeyringDir"`
	LighthouseEndpoint   string            `json:"LighthouseEndpoint"`
}

// defaultPaths are tried in order when no explicit path is given, mirroring
// "/etc/laniakea/base-config.json or beside the executable".
var defaultPaths = []string{
	"/etc/laniakea/base-config.json",
	"../data/base-config.json",
}

// Load reads and parses the bootstrap config. If path is empty, each of
// defaultPaths is tried in turn.
func Load(path string) (*Config, error) {
	candidates := []string{path}
	if path == "" {
		candidates = defaultPaths
	}

	var lastErr error
	for _, p := range candidates {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "config: parse %s", p)
		}
		if cfg.RepoName == "" {
			cfg.RepoName = "main"
		}
		if err := cfg.validate(); err != nil {
			return nil, errors.Wrapf(err, "config: %s", p)
		}
		return &cfg, nil
	}
	return nil, errors.Wrap(lastErr, "config: no bootstrap file found")
}

func (c *Config) validate() error {
	if c.CacheLocation == "" {
		return errors.New("CacheLocation is required")
	}
	if c.Workspace == "" {
		return errors.New("Workspace is required")
	}
	if c.Database.Name == "" {
		return errors.New("Database.db is required")
	}
	return nil
}

// Save writes cfg back to path atomically (rename over a temp file in the
// same directory), matching the write-then-rename pattern used elsewhere
// in the pack for on-disk state.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".base-config-*.tmp")
	if err != nil {
		return errors.Wrap(err, "config: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "config: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "config: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "config: rename temp file")
	}
	return nil
}
