// Package extractor turns clipboard input into notes. Each source family is
// one Extractor; a Chain picks the first one that claims the input.
package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/htmlmd"
	"github.com/starford/readitlater/internal/models"
	"github.com/starford/readitlater/internal/tmpl"
)

// Extractor names, also used in logs and the extractor listing.
const (
	NameYouTube        = "youtube"
	NameYouTubeChannel = "youtube_channel"
	NameVimeo          = "vimeo"
	NameBilibili       = "bilibili"
	NameTikTok         = "tiktok"
	NameTwitter        = "twitter"
	NameBluesky        = "bluesky"
	NameStackExchange  = "stackexchange"
	NameMastodon       = "mastodon"
	NameWebsite        = "website"
	NameText           = "text"
)

// Content types assigned to notes. They feed the {{contentType}} inbox
// directory placeholder.
const (
	TypeYouTube        = "youtube"
	TypeYouTubeChannel = "youtube_channel"
	TypeVimeo          = "vimeo"
	TypeBilibili       = "bilibili"
	TypeTikTok         = "tiktok"
	TypeTweet          = "tweet"
	TypeBluesky        = "bluesky"
	TypeStackExchange  = "stackexchange"
	TypeMastodon       = "mastodon"
	TypeArticle        = "article"
	TypeTextSnippet    = "textsnippet"
)

// Extractor recognises one input family and converts it into a Note.
type Extractor interface {
	// Name identifies the extractor.
	Name() string
	// Test reports whether the extractor handles input.
	Test(ctx context.Context, input string) bool
	// PrepareNote fetches and renders input. Errors match apperr.ErrFetch
	// or apperr.ErrParse.
	PrepareNote(ctx context.Context, input string) (models.Note, error)
}

// Deps are the collaborators shared by all extractors.
type Deps struct {
	Fetcher fetch.Fetcher
	Engine  *tmpl.Engine
	// Assets localizes media; nil disables downloads.
	Assets htmlmd.Localizer
	Logger *slog.Logger
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Fetcher == nil {
		d.Fetcher = fetch.NewClient()
	}
	if d.Engine == nil {
		d.Engine = tmpl.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
