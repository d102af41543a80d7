package extractor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

// youtubeChannelRe captures one of: @handle, channel id, /c/ name, /user/ name.
var youtubeChannelRe = regexp.MustCompile(`^https?://(?:(?:www|m)\.)?youtube\.com/(?:(@[\w.-]+)|channel/(UC[\w-]{22})|c/([\w.-]+)|user/([\w.-]+))(?:/[\w-]*)?/?(?:[?#]\S*)?$`)

// YouTubeChannel saves channel pages.
type YouTubeChannel struct {
	r   *renderer
	cfg config.YouTubeChannelConfig
}

type youtubeChannel struct {
	title, description, thumbnail, url, subscribers string
}

func (e *YouTubeChannel) Name() string { return NameYouTubeChannel }

func (e *YouTubeChannel) Test(_ context.Context, input string) bool {
	return youtubeChannelRe.MatchString(strings.TrimSpace(input))
}

func (e *YouTubeChannel) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	pageURL := strings.TrimSpace(input)
	m := youtubeChannelRe.FindStringSubmatch(pageURL)
	if m == nil {
		return models.Note{}, fmt.Errorf("youtube_channel: %w: not a channel URL", apperr.ErrParse)
	}
	handle, channelID, custom, user := m[1], m[2], m[3], m[4]

	var (
		ch  youtubeChannel
		err error
	)
	if e.cfg.APIKey != "" && custom == "" {
		ch, err = e.fromAPI(ctx, handle, channelID, user)
	} else {
		ch, err = e.fromPage(ctx, pageURL)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("youtube_channel: %w", err)
	}

	id := firstNonEmpty(handle, channelID, custom, user)
	rec := models.Record{}.
		Set("id", id).
		Set("title", firstNonEmpty(ch.title, id)).
		Set("url", firstNonEmpty(ch.url, pageURL)).
		Set("description", ch.description).
		Set("thumbnail", ch.thumbnail).
		Set("subscribers", ch.subscribers)
	return e.r.note(e.cfg.SourceConfig, TypeYouTubeChannel, rec, createdAt), nil
}

func (e *YouTubeChannel) fromAPI(ctx context.Context, handle, channelID, user string) (youtubeChannel, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("key", e.cfg.APIKey)
	switch {
	case handle != "":
		q.Set("forHandle", handle)
	case channelID != "":
		q.Set("id", channelID)
	default:
		q.Set("forUsername", user)
	}

	var resp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title       string            `json:"title"`
				Description string            `json:"description"`
				Thumbnails  youtubeThumbnails `json:"thumbnails"`
			} `json:"snippet"`
			Statistics struct {
				SubscriberCount string `json:"subscriberCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, youtubeAPIBase+"/channels?"+q.Encode(), &resp); err != nil {
		return youtubeChannel{}, err
	}
	if len(resp.Items) == 0 {
		return youtubeChannel{}, fmt.Errorf("%w: channel not found", apperr.ErrParse)
	}
	it := resp.Items[0]
	return youtubeChannel{
		title:       it.Snippet.Title,
		description: it.Snippet.Description,
		thumbnail:   it.Snippet.Thumbnails.best(),
		url:         channelURL(it.ID),
		subscribers: it.Statistics.SubscriberCount,
	}, nil
}

func (e *YouTubeChannel) fromPage(ctx context.Context, pageURL string) (youtubeChannel, error) {
	doc, _, err := fetch.GetDocument(ctx, e.r.fetcher, pageURL, fetch.WithDesktopUserAgent())
	if err != nil {
		return youtubeChannel{}, err
	}
	meta := readPageMeta(doc)
	if meta.title == "" {
		return youtubeChannel{}, fmt.Errorf("%w: no channel metadata", apperr.ErrParse)
	}
	canonical, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	return youtubeChannel{
		title:       meta.title,
		description: metaContent(doc, "og:description"),
		thumbnail:   meta.image,
		url:         canonical,
	}, nil
}
