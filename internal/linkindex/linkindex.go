// Package linkindex remembers, per remote URL, the content hash of the last
// payload downloaded for it and where that payload was stored. The asset
// pipeline uses it to skip reading back files it already knows, as long as
// the file on disk still has the recorded size and modification time.
package linkindex

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the in-memory index.
const DefaultCacheSize = 4096

// Entry is what the index knows about one URL.
type Entry struct {
	Hash string
	Path string
	// Size and ModTime describe the stored file when the entry was written.
	Size    int64
	ModTime time.Time
}

// Matches reports whether a file with size and modTime is still the one the
// entry was recorded for.
func (e Entry) Matches(size int64, modTime time.Time) bool {
	return e.Size == size && e.ModTime.Equal(modTime)
}

// Index maps remote URLs to their last downloaded payload.
type Index interface {
	Get(url string) (Entry, bool)
	Put(url string, e Entry) error
}

// Memory is a process-lifetime index with LRU eviction.
type Memory struct {
	cache *lru.Cache[string, Entry]
}

// Verify implementations satisfy Index at compile time.
var (
	_ Index = (*Memory)(nil)
	_ Index = (*SQLite)(nil)
)

// NewMemory creates an in-memory index holding up to size URLs.
func NewMemory(size int) *Memory {
	return &Memory{cache: newCache(size)}
}

// Get returns the entry for url.
func (m *Memory) Get(url string) (Entry, bool) {
	return m.cache.Get(url)
}

// Put records the entry for url.
func (m *Memory) Put(url string, e Entry) error {
	m.cache.Add(url, e)
	return nil
}

func newCache(size int) *lru.Cache[string, Entry] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, Entry](size)
	if err != nil {
		c, _ = lru.New[string, Entry](DefaultCacheSize)
	}
	return c
}
