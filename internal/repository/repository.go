// Package repository presents a uniform view of a local or remote archive
// mirror: index file retrieval with checksum validation, and typed
// source/binary/installer package listings.
package repository

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/archive"
	"github.com/lkhq/laniakea/internal/sig"
	"github.com/lkhq/laniakea/internal/tagfile"
)

// ErrIntegrity is returned when a downloaded file's checksum does not match
// the suite's InRelease manifest (fatal to the run).
var ErrIntegrity = errors.New("repository: checksum mismatch")

// ErrNetwork covers exhausted download retries.
var ErrNetwork = errors.New("repository: download failed after retries")

// InReleaseData is the parsed, signature-verified payload of an
// InRelease/Release manifest.
type InReleaseData struct {
	Suite     string
	Codename  string
	Files     []archive.ArchiveFile // from the SHA256: field
	Signed    bool
}

// Repository accesses one archive mirror, local directory or HTTP(S) root.
type Repository struct {
	Name       string
	Root       string // local path or URL
	CacheDir   string
	Keyrings   []string
	Trusted    bool // skip checksum validation for unlisted files if no keyring configured; no warning is emitted
	HTTPClient *http.Client

	mu          sync.Mutex
	releaseInfo map[string]*InReleaseData // memoized per-suite
	fetching    map[string]*sync.Once     // dedupe concurrent downloads of the same relative path
}

// NewRepository constructs a Repository rooted at root (a local directory
// path or an http(s):// URL), caching downloads under cacheDir.
func NewRepository(name, root, cacheDir string, keyrings []string) *Repository {
	return &Repository{
		Name:        name,
		Root:        root,
		CacheDir:    cacheDir,
		Keyrings:    keyrings,
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
		releaseInfo: make(map[string]*InReleaseData),
		fetching:    make(map[string]*sync.Once),
	}
}

func (r *Repository) isRemote() bool {
	return strings.HasPrefix(r.Root, "http://") || strings.HasPrefix(r.Root, "https://")
}

// localPath returns where relPath would be cached (remote) or found
// (local).
func (r *Repository) localPath(relPath string) string {
	if !r.isRemote() {
		return path.Join(r.Root, relPath)
	}
	return filepath.Join(r.CacheDir, "repos_tmp", r.Name, filepath.FromSlash(relPath))
}

// fetch downloads relPath (if remote) with retry/backoff, deduplicating
// concurrent fetches of the same path within this process.
func (r *Repository) fetch(ctx context.Context, relPath string) (string, error) {
	dest := r.localPath(relPath)
	if !r.isRemote() {
		if _, err := os.Stat(dest); err != nil {
			return "", errors.Wrapf(err, "repository: %s", relPath)
		}
		return dest, nil
	}

	r.mu.Lock()
	once, ok := r.fetching[relPath]
	if !ok {
		once = &sync.Once{}
		r.fetching[relPath] = once
	}
	r.mu.Unlock()

	var downloadErr error
	once.Do(func() {
		if _, err := os.Stat(dest); err == nil {
			return // already downloaded by a previous call
		}
		downloadErr = r.download(ctx, relPath, dest)
	})
	if downloadErr != nil {
		return "", downloadErr
	}
	return dest, nil
}

// download fetches relPath from the repository root, retrying up to 4 times
// with progressive backoff.
func (r *Repository) download(ctx context.Context, relPath, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	url := strings.TrimRight(r.Root, "/") + "/" + relPath

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := r.HTTPClient.Do(req)
		if err != nil {
			return errors.Wrap(ErrNetwork, err.Error())
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return errors.Wrapf(ErrNetwork, "http %d fetching %s", resp.StatusCode, url)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(errors.Wrapf(ErrNetwork, "http %d fetching %s", resp.StatusCode, url))
		}
		tmp := dest + ".part"
		f, err := os.Create(tmp)
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			return errors.Wrap(ErrNetwork, err.Error())
		}
		f.Close()
		return os.Rename(tmp, dest)
	}, b)
}

// GetRepoInformation fetches dists/<suite>/InRelease, verifies it against
// the configured keyrings, parses the SHA256: field, and memoizes the
// result per suite.
func (r *Repository) GetRepoInformation(ctx context.Context, suite string) (*InReleaseData, error) {
	r.mu.Lock()
	if cached, ok := r.releaseInfo[suite]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	relPath := "dists/" + suite + "/InRelease"
	localPath, err := r.fetch(ctx, relPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}

	data := &InReleaseData{Suite: suite}
	payload := raw
	if len(r.Keyrings) > 0 {
		reader := sig.NewReader(r.Keyrings)
		res, err := reader.Verify(ctx, raw, true)
		if err != nil {
			return nil, errors.Wrapf(err, "repository: verifying InRelease for %s", suite)
		}
		payload = res.Payload
		data.Signed = true
	} else if !r.Trusted {
		return nil, errors.Errorf("repository: no keyring configured for %s and repository not marked trusted", r.Name)
	}

	tr := tagfile.NewReader(strings.NewReader(string(payload)))
	if !tr.NextSection() {
		return nil, errors.Errorf("repository: empty InRelease for %s", suite)
	}
	data.Codename = tr.ReadField("Codename", "")
	files, err := tagfile.ParseChecksumsList(tr.ReadField("SHA256", ""), "")
	if err != nil {
		return nil, err
	}
	data.Files = files

	r.mu.Lock()
	r.releaseInfo[suite] = data
	r.mu.Unlock()
	return data, nil
}

// GetIndexFile ensures relativePath is present under suite, downloading it
// with retry if the root is a URL, validating its SHA-256 against the
// suite's InRelease manifest. Fails if the checksum is missing unless the
// repository is explicitly trusted and no keyring is configured.
func (r *Repository) GetIndexFile(ctx context.Context, suite, relativePath string) (string, error) {
	relPath := "dists/" + suite + "/" + relativePath
	localPath, err := r.fetch(ctx, relPath)
	if err != nil {
		return "", err
	}

	info, err := r.GetRepoInformation(ctx, suite)
	if err != nil {
		return "", err
	}

	var want *archive.ArchiveFile
	for i := range info.Files {
		if info.Files[i].Filename == relativePath {
			want = &info.Files[i]
			break
		}
	}
	if want == nil {
		if r.Trusted && len(r.Keyrings) == 0 {
			return localPath, nil // validation skipped silently
		}
		return "", errors.Wrapf(ErrIntegrity, "no checksum listed for %s in %s InRelease", relativePath, suite)
	}

	sum, err := sha256File(localPath)
	if err != nil {
		return "", err
	}
	if sum != want.SHA256Sum {
		return "", errors.Wrapf(ErrIntegrity, "%s: got %s want %s", relativePath, sum, want.SHA256Sum)
	}
	return localPath, nil
}

// GetFile downloads af (if remote) and optionally validates its checksum.
func (r *Repository) GetFile(ctx context.Context, af archive.ArchiveFile, validate bool) (string, error) {
	localPath, err := r.fetch(ctx, af.Filename)
	if err != nil {
		return "", err
	}
	if validate && af.SHA256Sum != "" {
		sum, err := sha256File(localPath)
		if err != nil {
			return "", err
		}
		if sum != af.SHA256Sum {
			return "", errors.Wrapf(ErrIntegrity, "%s: got %s want %s", af.Filename, sum, af.SHA256Sum)
		}
	}
	return localPath, nil
}
