// Package testutil provides shared test helpers for vaults, link indexes,
// configuration and canned HTTP responses.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/linkindex"
	"github.com/starford/readitlater/internal/settings"
	"github.com/starford/readitlater/internal/storage"
)

// TestIndex creates a temporary SQLite link index that is automatically cleaned up.
func TestIndex(t *testing.T) *linkindex.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "readitlater-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	idx, err := linkindex.Open(dbFile.Name(), 16)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestConfig returns the default configuration with the vault and the
// preferences file placed in temporary directories.
func TestConfig(t *testing.T, vaultDir string) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.Notes.PreferencesFile = filepath.Join(t.TempDir(), "preferences.yaml")
	return cfg
}

// TestSettings wraps cfg in a settings store with a silent logger.
func TestSettings(cfg *config.Config) *settings.Store {
	return settings.NewStatic(cfg, QuietLogger())
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type response struct {
	contentType string
	body        string
	status      int
}

// Fetcher serves canned responses keyed by URL prefix; the longest matching
// prefix wins. Unmatched URLs get a 404.
type Fetcher struct {
	mu     sync.Mutex
	routes map[string]response
	calls  []string
}

// NewFetcher returns an empty Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{routes: make(map[string]response)}
}

// Handle serves body for URLs starting with prefix.
func (f *Fetcher) Handle(prefix, contentType, body string) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[prefix] = response{contentType: contentType, body: body, status: 200}
	return f
}

// Fail answers URLs starting with prefix with status.
func (f *Fetcher) Fail(prefix string, status int) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[prefix] = response{status: status}
	return f
}

// Get implements fetch.Fetcher.
func (f *Fetcher) Get(_ context.Context, rawURL string, _ ...fetch.Option) (*fetch.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	var (
		best  string
		match response
		found bool
	)
	for prefix, r := range f.routes {
		if strings.HasPrefix(rawURL, prefix) && len(prefix) >= len(best) {
			best, match, found = prefix, r, true
		}
	}
	f.mu.Unlock()

	if !found {
		return nil, &fetch.StatusError{URL: rawURL, Code: 404}
	}
	if match.status >= 400 {
		return nil, &fetch.StatusError{URL: rawURL, Code: match.status}
	}
	u, _ := url.Parse(rawURL)
	return &fetch.Response{URL: u, StatusCode: 200, ContentType: match.contentType, Body: []byte(match.body)}, nil
}

// Called reports whether any request URL started with prefix.
func (f *Fetcher) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// Calls returns a copy of every requested URL in order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
