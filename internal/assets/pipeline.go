// Package assets downloads media referenced from markdown into the vault and
// rewrites the references to the local copies. Identical payloads are
// stored once.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/readitlater/internal/checksum"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/fspath"
	"github.com/starford/readitlater/internal/linkindex"
	"github.com/starford/readitlater/internal/storage"
)

const (
	// DefaultMaxAttempts bounds the base, base-1, ... candidate names tried.
	DefaultMaxAttempts = 10
	// DefaultConcurrency bounds parallel downloads for one note.
	DefaultConcurrency = 4

	fallbackBaseName = "media"
	// room kept in the file name for the "-NN" collision suffix
	suffixReserve = 4
)

var (
	errNoExtension = errors.New("assets: cannot determine file extension")
	errNoSlot      = errors.New("assets: no free file name")
)

// imageRe matches ![alt](url) and ![alt](url "title"). Group 1 is the alt
// text, group 2 the link.
var imageRe = regexp.MustCompile(`!\[([^\]\n]*)\]\(\s*<?([^)\s>]+)>?(?:\s+(?:"[^"]*"|'[^']*'))?\s*\)`)

// Pipeline localizes remote media for notes.
type Pipeline struct {
	store       storage.Provider
	fetcher     fetch.Fetcher
	index       linkindex.Index
	limits      fspath.Limits
	logger      *slog.Logger
	maxAttempts int
	concurrency int

	// mu serialises name selection and writes so concurrent downloads never
	// claim the same slot.
	mu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIndex injects the link hash index. Defaults to a fresh in-memory one.
func WithIndex(idx linkindex.Index) Option {
	return func(p *Pipeline) {
		if idx != nil {
			p.index = idx
		}
	}
}

// WithLimits sets the filesystem limits applied to asset names.
func WithLimits(l fspath.Limits) Option {
	return func(p *Pipeline) { p.limits = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// New creates a Pipeline writing into store.
func New(store storage.Provider, fetcher fetch.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       store,
		fetcher:     fetcher,
		limits:      fspath.LimitsFor(""),
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.index == nil {
		p.index = linkindex.NewMemory(linkindex.DefaultCacheSize)
	}
	return p
}

// Localize downloads every remote image referenced in markdown into dir
// (vault-relative) and returns the markdown with references rewritten.
// References that cannot be fetched or named are left untouched.
func (p *Pipeline) Localize(ctx context.Context, markdown, dir string) string {
	matches := imageRe.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		return markdown
	}

	replacements := make([]string, len(matches))
	var pending []int
	for i, m := range matches {
		replacements[i] = markdown[m[0]:m[1]]
		if fetch.IsURL(markdown[m[4]:m[5]]) {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return markdown
	}

	if err := p.store.MkdirAll(dir); err != nil {
		p.logger.Warn("assets: create folder failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return markdown
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, i := range pending {
		m := matches[i]
		alt := markdown[m[2]:m[3]]
		link := markdown[m[4]:m[5]]
		g.Go(func() error {
			local, err := p.Save(ctx, link, alt, dir)
			if err != nil {
				p.logger.Warn("assets: keep remote reference",
					slog.String("url", link),
					slog.String("error", err.Error()))
				return nil
			}
			full := replacements[i]
			start, end := m[4]-m[0], m[5]-m[0]
			replacements[i] = full[:start] + encodeLinkPath(local) + full[end:]
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	b.Grow(len(markdown))
	last := 0
	for i, m := range matches {
		b.WriteString(markdown[last:m[0]])
		b.WriteString(replacements[i])
		last = m[1]
	}
	b.WriteString(markdown[last:])
	return b.String()
}

// Save downloads rawURL into dir and returns the vault-relative path of the
// stored (or reused) file.
func (p *Pipeline) Save(ctx context.Context, rawURL, alt, dir string) (string, error) {
	resp, err := p.fetcher.Get(ctx, rawURL, fetch.WithDesktopUserAgent())
	if err != nil {
		return "", err
	}
	ext := extensionFor(rawURL, resp.MediaType())
	if ext == "" {
		return "", errNoExtension
	}

	nameLimits := p.limits
	nameLimits.MaxFileNameLength -= suffixReserve
	base := fspath.FitFileName(path.Join(p.store.Root(), dir), baseName(alt, rawURL), ext, nameLimits)
	hash := checksum.Sum(resp.Body)

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		name := base
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d", base, attempt)
		}
		rel := path.Join(dir, name+"."+ext)

		exists, err := p.store.Exists(rel)
		if err != nil {
			return "", err
		}
		if !exists {
			if err := p.store.Write(rel, resp.Body); err != nil {
				return "", err
			}
			p.remember(rawURL, hash, rel)
			return rel, nil
		}

		same, err := p.sameContent(rawURL, rel, hash, resp.Body)
		if err != nil {
			return "", err
		}
		if same {
			p.remember(rawURL, hash, rel)
			p.logger.Debug("assets: reuse existing file", slog.String("url", rawURL), slog.String("path", rel))
			return rel, nil
		}
	}
	return "", errNoSlot
}

// sameContent compares the downloaded payload with the file at rel. The
// index entry for rawURL only vouches for the file while it still has the
// recorded size and modification time; anything else is read back.
func (p *Pipeline) sameContent(rawURL, rel, hash string, data []byte) (bool, error) {
	if e, ok := p.index.Get(rawURL); ok && e.Path == rel && e.Hash == hash && !e.ModTime.IsZero() {
		info, err := p.store.Stat(rel)
		if err != nil {
			return false, err
		}
		if info.Size == int64(len(data)) && e.Matches(info.Size, info.ModTime) {
			return true, nil
		}
	}
	existing, err := p.store.Read(rel)
	if err != nil {
		return false, err
	}
	return checksum.Sum(existing) == hash && bytes.Equal(existing, data), nil
}

func (p *Pipeline) remember(rawURL, hash, rel string) {
	entry := linkindex.Entry{Hash: hash, Path: rel}
	if info, err := p.store.Stat(rel); err == nil {
		entry.Size, entry.ModTime = info.Size, info.ModTime
	}
	if err := p.index.Put(rawURL, entry); err != nil {
		p.logger.Debug("assets: index update failed", slog.String("url", rawURL), slog.String("error", err.Error()))
	}
}

// linkPathEscaper keeps a vault path usable as a markdown link destination.
var linkPathEscaper = strings.NewReplacer(" ", "%20", "\t", "%09", "(", "%28", ")", "%29")

func encodeLinkPath(s string) string {
	return linkPathEscaper.Replace(s)
}
