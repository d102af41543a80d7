package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/datefmt"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/htmlmd"
	"github.com/starford/readitlater/internal/models"
	"github.com/starford/readitlater/internal/tmpl"
)

// renderer carries what every extractor needs to fetch, convert and render.
type renderer struct {
	fetcher  fetch.Fetcher
	engine   *tmpl.Engine
	html     *htmlmd.Converter
	assets   htmlmd.Localizer
	logger   *slog.Logger
	now      func() time.Time
	notes    config.NotesConfig
	assetDir string
}

func newRenderer(cfg *config.Config, deps Deps) *renderer {
	r := &renderer{
		fetcher: deps.Fetcher,
		engine:  deps.Engine,
		html:    htmlmd.New(deps.Assets),
		assets:  deps.Assets,
		logger:  deps.Logger,
		now:     deps.Now,
		notes:   cfg.Notes,
	}
	if cfg.Notes.DownloadMedia && deps.Assets != nil {
		r.assetDir = cfg.Vault.AssetsDir
	}
	return r
}

// note renders rec through the source templates. The title sees the title
// date format and the body the content date format under {{date}}.
func (r *renderer) note(src config.SourceConfig, contentType string, rec models.Record, createdAt time.Time) models.Note {
	titleCtx := make(tmpl.Context, len(rec)+1)
	noteCtx := make(tmpl.Context, len(rec)+1)
	for k, v := range rec {
		if v == nil {
			v = ""
		}
		titleCtx[k] = v
		noteCtx[k] = v
	}
	titleCtx["date"] = datefmt.Format(createdAt, r.notes.DateTitleFormat, datefmt.DefaultTitleFormat)
	noteCtx["date"] = datefmt.Format(createdAt, r.notes.DateContentFormat, datefmt.DefaultContentFormat)

	title := r.engine.Render(src.TitleTemplate, titleCtx)
	body := r.engine.Render(src.NoteTemplate, noteCtx)
	return models.NewNote(title, body, contentType, createdAt)
}

// markdown converts an HTML fragment, localizing media when enabled. A
// conversion failure falls back to the fragment's text.
func (r *renderer) markdown(ctx context.Context, html, pageURL string) string {
	md, err := r.html.Convert(ctx, html, pageURL, r.assetDir)
	if err != nil {
		r.logger.Debug("extractor: html conversion failed", slog.String("url", pageURL), slog.String("error", err.Error()))
		return strings.TrimSpace(html)
	}
	return md
}

// media renders attachments as markdown and localizes them when enabled.
func (r *renderer) media(ctx context.Context, attachments []models.MediaAttachment) string {
	md := models.MediaMarkdown(attachments)
	if md == "" || r.assets == nil || r.assetDir == "" {
		return md
	}
	return r.assets.Localize(ctx, md, r.assetDir)
}

// date renders a source timestamp with the content date format.
func (r *renderer) date(s string) string {
	return datefmt.Reformat(s, r.notes.DateContentFormat, datefmt.DefaultContentFormat)
}

func (r *renderer) dateOf(t time.Time) string {
	return datefmt.Format(t, r.notes.DateContentFormat, datefmt.DefaultContentFormat)
}

// oembedURL builds endpoint?url=<target>&format=json plus extra params.
func oembedURL(endpoint, target string, extra url.Values) string {
	q := url.Values{}
	q.Set("url", target)
	q.Set("format", "json")
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return endpoint + "?" + q.Encode()
}
