package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/datefmt"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// youtubeRe captures the 11-character video id from watch, shorts, live,
// embed and youtu.be links.
var youtubeRe = regexp.MustCompile(`^https?://(?:(?:www|m|music)\.)?(?:youtube\.com/(?:watch\?(?:[^#\s]*&)?v=|shorts/|live/|embed/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[?&#/]\S*)?$`)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// YouTube saves videos.
type YouTube struct {
	r   *renderer
	cfg config.YouTubeConfig
}

type youtubeVideo struct {
	title, description, channel, channelID, published, thumbnail string
	seconds                                                      int
}

func (e *YouTube) Name() string { return NameYouTube }

func (e *YouTube) Test(_ context.Context, input string) bool {
	return youtubeRe.MatchString(strings.TrimSpace(input))
}

func (e *YouTube) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := youtubeRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("youtube: %w: not a video URL", apperr.ErrParse)
	}
	id := m[1]

	var (
		v   youtubeVideo
		err error
	)
	if e.cfg.APIKey != "" {
		v, err = e.fromAPI(ctx, id)
	} else {
		v, err = e.fromPage(ctx, id)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("youtube: %w", err)
	}

	rec := models.Record{}.
		Set("id", id).
		Set("title", v.title).
		Set("url", "https://www.youtube.com/watch?v="+id).
		Set("description", v.description).
		Set("channel", v.channel).
		Set("channelURL", channelURL(v.channelID)).
		Set("published", e.r.date(v.published)).
		Set("duration", datefmt.Duration(v.seconds)).
		Set("thumbnail", v.thumbnail).
		Set("player", e.player(id))
	return e.r.note(e.cfg.SourceConfig, TypeYouTube, rec, createdAt), nil
}

func (e *YouTube) player(id string) string {
	w, h := e.cfg.EmbedWidth, e.cfg.EmbedHeight
	if w <= 0 {
		w = 560
	}
	if h <= 0 {
		h = 315
	}
	return fmt.Sprintf(`<iframe width="%d" height="%d" src="https://www.youtube.com/embed/%s" title="YouTube video player" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>`, w, h, id)
}

type youtubeThumbnails map[string]struct {
	URL string `json:"url"`
}

// best returns the largest available thumbnail.
func (t youtubeThumbnails) best() string {
	for _, k := range []string{"maxres", "standard", "high", "medium", "default"} {
		if th, ok := t[k]; ok && th.URL != "" {
			return th.URL
		}
	}
	return ""
}

func (e *YouTube) fromAPI(ctx context.Context, id string) (youtubeVideo, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("id", id)
	q.Set("key", e.cfg.APIKey)

	var resp struct {
		Items []struct {
			Snippet struct {
				Title        string            `json:"title"`
				Description  string            `json:"description"`
				ChannelID    string            `json:"channelId"`
				ChannelTitle string            `json:"channelTitle"`
				PublishedAt  string            `json:"publishedAt"`
				Thumbnails   youtubeThumbnails `json:"thumbnails"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, youtubeAPIBase+"/videos?"+q.Encode(), &resp); err != nil {
		return youtubeVideo{}, err
	}
	if len(resp.Items) == 0 {
		return youtubeVideo{}, fmt.Errorf("%w: video %s not found", apperr.ErrParse, id)
	}
	it := resp.Items[0]
	return youtubeVideo{
		title:       it.Snippet.Title,
		description: it.Snippet.Description,
		channel:     it.Snippet.ChannelTitle,
		channelID:   it.Snippet.ChannelID,
		published:   it.Snippet.PublishedAt,
		thumbnail:   it.Snippet.Thumbnails.best(),
		seconds:     parseISODuration(it.ContentDetails.Duration),
	}, nil
}

const playerResponseMarker = "ytInitialPlayerResponse = "

type playerResponse struct {
	VideoDetails struct {
		Title            string `json:"title"`
		ShortDescription string `json:"shortDescription"`
		Author           string `json:"author"`
		ChannelID        string `json:"channelId"`
		LengthSeconds    string `json:"lengthSeconds"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat struct {
		Renderer struct {
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

// fromPage reads the player response embedded in the watch page, falling
// back to the page's Open Graph tags.
func (e *YouTube) fromPage(ctx context.Context, id string) (youtubeVideo, error) {
	resp, err := e.r.fetcher.Get(ctx, "https://www.youtube.com/watch?v="+id, fetch.WithDesktopUserAgent())
	if err != nil {
		return youtubeVideo{}, err
	}

	if pr, ok := decodePlayerResponse(resp.Body); ok && pr.VideoDetails.Title != "" {
		d := pr.VideoDetails
		v := youtubeVideo{
			title:       d.Title,
			description: d.ShortDescription,
			channel:     d.Author,
			channelID:   d.ChannelID,
			published:   pr.Microformat.Renderer.PublishDate,
		}
		v.seconds, _ = strconv.Atoi(d.LengthSeconds)
		if n := len(d.Thumbnail.Thumbnails); n > 0 {
			v.thumbnail = d.Thumbnail.Thumbnails[n-1].URL
		}
		return v, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return youtubeVideo{}, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	meta := readPageMeta(doc)
	if meta.title == "" {
		return youtubeVideo{}, fmt.Errorf("%w: no video data in page", apperr.ErrParse)
	}
	return youtubeVideo{
		title:       meta.title,
		description: metaContent(doc, "og:description"),
		channel:     strings.TrimSpace(doc.Find(`link[itemprop="name"]`).First().AttrOr("content", "")),
		thumbnail:   meta.image,
	}, nil
}

// decodePlayerResponse decodes the JSON object assigned to
// ytInitialPlayerResponse in page. The decoder stops at the end of the
// object, so the trailing script is ignored.
func decodePlayerResponse(page []byte) (playerResponse, bool) {
	var pr playerResponse
	i := bytes.Index(page, []byte(playerResponseMarker))
	if i < 0 {
		return pr, false
	}
	dec := json.NewDecoder(bytes.NewReader(page[i+len(playerResponseMarker):]))
	if err := dec.Decode(&pr); err != nil {
		return pr, false
	}
	return pr, true
}

// parseISODuration converts an ISO 8601 duration such as PT1H2M3S to
// seconds.
func parseISODuration(s string) int {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	total := 0
	for i, mult := range []int{86400, 3600, 60, 1} {
		if n, err := strconv.Atoi(m[i+1]); err == nil {
			total += n * mult
		}
	}
	return total
}

func channelURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/channel/" + id
}
