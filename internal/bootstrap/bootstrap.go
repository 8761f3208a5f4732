// Package bootstrap holds small wiring helpers shared by the cmd/lk-*
// binaries: listing trusted keyrings and building a Repository for the
// local archive. Loading the config file and opening the store are done by
// each main.go itself.
package bootstrap

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lkhq/laniakea/internal/repository"
)

// KeyringsFromDir lists the .gpg/.asc files under dir, ignoring a missing
// or unreadable directory (trust nothing in that case, rather than treat
// it as a fatal error).
func KeyringsFromDir(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".gpg") || strings.HasSuffix(name, ".asc") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out
}

// NewLocalRepository builds the Repository for the archive this process
// owns (as opposed to an upstream source repository it only reads from).
func NewLocalRepository(repoName, archivePath, cacheDir, keyringDir string) *repository.Repository {
	return repository.NewRepository(repoName, archivePath, cacheDir, KeyringsFromDir(keyringDir))
}
