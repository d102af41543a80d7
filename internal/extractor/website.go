package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

// degradedArticleTemplate renders pages whose article body cannot be read.
const degradedArticleTemplate = "[[ReadItLater]] [[Article]]\n\n[{{ title }}]({{ url }})\n"

// Website saves any http(s) page through reader mode.
type Website struct {
	r   *renderer
	cfg config.WebsiteConfig
}

func (e *Website) Name() string { return NameWebsite }

func (e *Website) Test(_ context.Context, input string) bool {
	return fetch.IsURL(input)
}

func (e *Website) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	pageURL := strings.TrimSpace(input)

	resp, err := e.r.fetcher.Get(ctx, pageURL, fetch.WithDesktopUserAgent())
	if err != nil {
		return models.Note{}, fmt.Errorf("website: %w", err)
	}
	base := resp.URL
	if base == nil {
		if base, err = url.Parse(pageURL); err != nil {
			return models.Note{}, fmt.Errorf("website: %w", err)
		}
	}
	finalURL := base.String()

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	meta := pageMeta{}
	if docErr == nil {
		meta = readPageMeta(doc)
	}

	if !strings.Contains(resp.MediaType(), "html") {
		return e.degraded(finalURL, meta.title, createdAt), nil
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body), base)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		e.r.logger.Info("website: article not readable",
			slog.String("url", finalURL),
			slog.Any("error", err))
		return e.degraded(finalURL, meta.title, createdAt), nil
	}

	title := firstNonEmpty(article.Title, meta.title, finalURL)
	rec := models.Record{}.
		Set("title", title).
		Set("url", finalURL).
		Set("author", firstNonEmpty(article.Byline, meta.author)).
		Set("siteName", firstNonEmpty(article.SiteName, meta.siteName)).
		Set("excerpt", article.Excerpt).
		Set("previewURL", firstNonEmpty(article.Image, meta.image)).
		Set("published", e.r.date(meta.published)).
		Set("readingTime", readingTime(article.TextContent, e.cfg.ReadingSpeed)).
		Set("content", e.r.markdown(ctx, article.Content, finalURL))
	return e.r.note(e.cfg.SourceConfig, TypeArticle, rec, createdAt), nil
}

// degraded returns a title-and-link note for unreadable pages.
func (e *Website) degraded(pageURL, title string, createdAt time.Time) models.Note {
	rec := models.Record{}.
		Set("title", firstNonEmpty(title, pageURL)).
		Set("url", pageURL)
	src := e.cfg.SourceConfig
	src.NoteTemplate = degradedArticleTemplate
	return e.r.note(src, TypeArticle, rec, createdAt)
}

type pageMeta struct {
	title, author, siteName, image, published string
}

func readPageMeta(doc *goquery.Document) pageMeta {
	return pageMeta{
		title:     firstNonEmpty(metaContent(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		author:    metaContent(doc, "author"),
		siteName:  metaContent(doc, "og:site_name"),
		image:     metaContent(doc, "og:image"),
		published: firstNonEmpty(metaContent(doc, "article:published_time"), metaContent(doc, "date")),
	}
}

// metaContent returns the content of <meta property=key> or <meta name=key>.
func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(`meta[property="` + key + `"], meta[name="` + key + `"]`).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

// readingTime estimates whole minutes at wpm words per minute, at least 1.
func readingTime(text string, wpm int) int {
	if wpm <= 0 {
		wpm = 200
	}
	words := len(strings.Fields(text))
	return max(1, int(math.Ceil(float64(words)/float64(wpm))))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
