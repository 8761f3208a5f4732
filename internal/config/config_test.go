package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "base-config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"CacheLocation": "/var/tmp/laniakea",
		"Workspace": "/srv/laniakea/workspace",
		"Archive": {"path": "/srv/mirror", "url": ""},
		"Database": {"host": "db", "port": 5432, "db": "laniakea", "user": "lk", "password": "secret"},
		"Synchrotron": {"SourceKeyringDir": "/srv/keyrings"},
		"TrustedGpgKeyringDir": "/srv/keyrings/trusted",
		"LighthouseEndpoint": "lighthouse.internal:9988"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/tmp/laniakea", cfg.CacheLocation)
	require.Equal(t, "laniakea", cfg.Database.Name)
	require.Equal(t, "postgres://lk:secret@db:5432/laniakea?sslmode=disable", cfg.Database.DSN())
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeTempConfig(t, `{"CacheLocation": "/var/tmp/laniakea"}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestDSNDefaultsPort(t *testing.T) {
	d := DatabaseConfig{Host: "db", Name: "laniakea", User: "lk", Password: "x"}
	require.Equal(t, "postgres://lk:x@db:5432/laniakea?sslmode=disable", d.DSN())
}

func TestLoadNoCandidates(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
