package extractor

import (
	"context"

	"github.com/starford/readitlater/internal/config"
)

// Chain is an ordered list of extractors. More specific extractors come
// first; generic fallbacks last.
type Chain struct {
	extractors []Extractor
}

// NewChainOf returns a chain over the given extractors in order.
func NewChainOf(extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors}
}

// NewChain registers every enabled source from cfg in the canonical order.
func NewChain(cfg *config.Config, deps Deps) *Chain {
	deps = deps.withDefaults()
	r := newRenderer(cfg, deps)
	s := cfg.Sources

	var list []Extractor
	add := func(on bool, e Extractor) {
		if on {
			list = append(list, e)
		}
	}
	add(s.YouTube.Enabled, &YouTube{r: r, cfg: s.YouTube})
	add(s.YouTubeChannel.Enabled, &YouTubeChannel{r: r, cfg: s.YouTubeChannel})
	add(s.Vimeo.Enabled, &Vimeo{r: r, cfg: s.Vimeo})
	add(s.Bilibili.Enabled, &Bilibili{r: r, cfg: s.Bilibili})
	add(s.TikTok.Enabled, &TikTok{r: r, cfg: s.TikTok})
	add(s.Twitter.Enabled, &Twitter{r: r, cfg: s.Twitter})
	add(s.Bluesky.Enabled, &Bluesky{r: r, cfg: s.Bluesky})
	add(s.StackExchange.Enabled, &StackExchange{r: r, cfg: s.StackExchange})
	add(s.Mastodon.Enabled, &Mastodon{r: r, cfg: s.Mastodon})
	add(s.Website.Enabled, &Website{r: r, cfg: s.Website})
	add(s.Text.Enabled, &Text{r: r, cfg: s.Text})
	return NewChainOf(list...)
}

// Select returns the first extractor whose Test accepts input. The second
// result is false when no extractor claims it.
func (c *Chain) Select(ctx context.Context, input string) (Extractor, bool) {
	for _, e := range c.extractors {
		if e.Test(ctx, input) {
			return e, true
		}
	}
	return nil, false
}

// Names lists the registered extractors in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.extractors))
	for i, e := range c.extractors {
		names[i] = e.Name()
	}
	return names
}
