package extractor

import (
	"context"
	"slices"
	"testing"

	"github.com/starford/readitlater/internal/config"
)

func TestChain_SelectOrder(t *testing.T) {
	chain := NewChain(config.NewDefaultConfig(), testDeps(newFakeFetcher()))

	tests := []struct {
		input string
		want  string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", NameYouTube},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", NameYouTube},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", NameYouTube},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", NameYouTube},
		{"https://www.youtube.com/@veritasium", NameYouTubeChannel},
		{"https://www.youtube.com/channel/UCHnyfMqiRRG1u-2MsSQLbXA", NameYouTubeChannel},
		{"https://vimeo.com/76979871", NameVimeo},
		{"https://www.bilibili.com/video/BV1GJ411x7h7", NameBilibili},
		{"https://www.tiktok.com/@scout2015/video/6718335390845095173", NameTikTok},
		{"https://x.com/jack/status/20", NameTwitter},
		{"https://twitter.com/jack/status/20?s=20", NameTwitter},
		{"https://bsky.app/profile/jay.bsky.team/post/3k2yihcrp6f2c", NameBluesky},
		{"https://stackoverflow.com/questions/11227809/why-is-processing", NameStackExchange},
		{"https://unix.stackexchange.com/q/12345", NameStackExchange},
		{"https://mastodon.social/@Gargron/109396356014337451", NameMastodon},
		{"https://example.com/article", NameWebsite},
		{"https://www.youtube.com/feed/trending", NameWebsite},
		{"just some text", NameText},
		{"https://a.com https://b.com", NameText},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, ok := chain.Select(context.Background(), tt.input)
			if !ok {
				t.Fatalf("no extractor for %q", tt.input)
			}
			if e.Name() != tt.want {
				t.Errorf("Select(%q) = %s, want %s", tt.input, e.Name(), tt.want)
			}
		})
	}
}

func TestChain_Deterministic(t *testing.T) {
	chain := NewChain(config.NewDefaultConfig(), testDeps(newFakeFetcher()))
	input := "https://vimeo.com/76979871"
	first, _ := chain.Select(context.Background(), input)
	for range 5 {
		e, _ := chain.Select(context.Background(), input)
		if e.Name() != first.Name() {
			t.Fatalf("selection changed: %s then %s", first.Name(), e.Name())
		}
	}
}

func TestChain_NoHandler(t *testing.T) {
	r := testRenderer(t, newFakeFetcher())
	chain := NewChainOf(&Website{r: r, cfg: config.NewDefaultConfig().Sources.Website})
	if _, ok := chain.Select(context.Background(), "plain text"); ok {
		t.Fatal("expected no handler")
	}
}

func TestChain_DisabledSourceFallsThrough(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Sources.YouTube.Enabled = false
	chain := NewChain(cfg, testDeps(newFakeFetcher()))

	e, ok := chain.Select(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !ok || e.Name() != NameWebsite {
		t.Fatalf("got %v, %v; want website", e, ok)
	}
	if slices.Contains(chain.Names(), NameYouTube) {
		t.Error("disabled extractor registered")
	}
}

func TestChain_NamesOrder(t *testing.T) {
	chain := NewChain(config.NewDefaultConfig(), testDeps(newFakeFetcher()))
	want := []string{
		NameYouTube, NameYouTubeChannel, NameVimeo, NameBilibili, NameTikTok,
		NameTwitter, NameBluesky, NameStackExchange, NameMastodon, NameWebsite, NameText,
	}
	if got := chain.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
