package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

const tiktokOEmbed = "https://www.tiktok.com/oembed"

var tiktokRe = regexp.MustCompile(`^https?://(?:www\.|m\.)?tiktok\.com/@([\w.-]+)/video/(\d+)(?:[/?#]\S*)?$`)

// TikTok saves videos through oEmbed.
type TikTok struct {
	r   *renderer
	cfg config.SourceConfig
}

func (e *TikTok) Name() string { return NameTikTok }

func (e *TikTok) Test(_ context.Context, input string) bool {
	return tiktokRe.MatchString(strings.TrimSpace(input))
}

func (e *TikTok) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := tiktokRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("tiktok: %w: not a video URL", apperr.ErrParse)
	}
	videoURL := "https://www.tiktok.com/@" + m[1] + "/video/" + m[2]

	var data struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		AuthorURL    string `json:"author_url"`
		ThumbnailURL string `json:"thumbnail_url"`
		HTML         string `json:"html"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, oembedURL(tiktokOEmbed, videoURL, nil), &data); err != nil {
		return models.Note{}, fmt.Errorf("tiktok: %w", err)
	}

	rec := models.Record{}.
		Set("id", m[2]).
		Set("title", data.Title).
		Set("url", videoURL).
		Set("author", firstNonEmpty(data.AuthorName, m[1])).
		Set("authorURL", firstNonEmpty(data.AuthorURL, "https://www.tiktok.com/@"+m[1])).
		Set("thumbnail", data.ThumbnailURL).
		Set("player", data.HTML)
	return e.r.note(e.cfg, TypeTikTok, rec, createdAt), nil
}
