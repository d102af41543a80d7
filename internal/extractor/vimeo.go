package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/datefmt"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

const vimeoOEmbed = "https://vimeo.com/api/oembed.json"

var vimeoRe = regexp.MustCompile(`^https?://(?:www\.|player\.)?vimeo\.com/(?:video/|channels/[\w-]+/|groups/[\w-]+/videos/)?(\d+)(?:[/?#]\S*)?$`)

// Vimeo saves videos through oEmbed.
type Vimeo struct {
	r   *renderer
	cfg config.SourceConfig
}

func (e *Vimeo) Name() string { return NameVimeo }

func (e *Vimeo) Test(_ context.Context, input string) bool {
	return vimeoRe.MatchString(strings.TrimSpace(input))
}

func (e *Vimeo) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := vimeoRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("vimeo: %w: not a video URL", apperr.ErrParse)
	}
	videoURL := "https://vimeo.com/" + m[1]

	var data struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		AuthorURL    string `json:"author_url"`
		Description  string `json:"description"`
		ThumbnailURL string `json:"thumbnail_url"`
		Duration     int    `json:"duration"`
		UploadDate   string `json:"upload_date"`
		HTML         string `json:"html"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, oembedURL(vimeoOEmbed, videoURL, nil), &data); err != nil {
		return models.Note{}, fmt.Errorf("vimeo: %w", err)
	}

	rec := models.Record{}.
		Set("id", m[1]).
		Set("title", data.Title).
		Set("url", videoURL).
		Set("author", data.AuthorName).
		Set("authorURL", data.AuthorURL).
		Set("description", data.Description).
		Set("thumbnail", data.ThumbnailURL).
		Set("duration", datefmt.Duration(data.Duration)).
		Set("published", e.r.date(data.UploadDate)).
		Set("player", data.HTML)
	return e.r.note(e.cfg, TypeVimeo, rec, createdAt), nil
}
