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

const blueskyAPIBase = "https://public.api.bsky.app/xrpc"

var blueskyRe = regexp.MustCompile(`^https?://(?:www\.)?bsky\.app/profile/([\w.:-]+)/post/(\w+)/?(?:[?#]\S*)?$`)

// Bluesky saves posts through the public AppView API.
type Bluesky struct {
	r   *renderer
	cfg config.SourceConfig
}

type blueskyImage struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt"`
}

type blueskyEmbed struct {
	Type      string         `json:"$type"`
	Images    []blueskyImage `json:"images"`
	Playlist  string         `json:"playlist"`
	Thumbnail string         `json:"thumbnail"`
	Alt       string         `json:"alt"`
	External  *struct {
		URI         string `json:"uri"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"external"`
	Media *blueskyEmbed `json:"media"`
}

// attachments flattens image, video and record-with-media embeds.
func (b *blueskyEmbed) attachments() []models.MediaAttachment {
	if b == nil {
		return nil
	}
	var out []models.MediaAttachment
	for _, img := range b.Images {
		out = append(out, models.MediaAttachment{
			URL:         firstNonEmpty(img.Fullsize, img.Thumb),
			Description: img.Alt,
			Type:        models.MediaImage,
		})
	}
	if b.Playlist != "" {
		out = append(out, models.MediaAttachment{
			URL:         b.Playlist,
			Thumbnail:   b.Thumbnail,
			Description: b.Alt,
			Type:        models.MediaVideo,
		})
	}
	return append(out, b.Media.attachments()...)
}

func (e *Bluesky) Name() string { return NameBluesky }

func (e *Bluesky) Test(_ context.Context, input string) bool {
	return blueskyRe.MatchString(strings.TrimSpace(input))
}

func (e *Bluesky) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := blueskyRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("bluesky: %w: not a post URL", apperr.ErrParse)
	}
	actor, rkey := m[1], m[2]

	q := url.Values{}
	q.Set("uri", "at://"+actor+"/app.bsky.feed.post/"+rkey)
	q.Set("depth", "0")

	var resp struct {
		Thread struct {
			Post *struct {
				Author struct {
					Handle      string `json:"handle"`
					DisplayName string `json:"displayName"`
				} `json:"author"`
				Record struct {
					Text      string `json:"text"`
					CreatedAt string `json:"createdAt"`
				} `json:"record"`
				Embed       *blueskyEmbed `json:"embed"`
				LikeCount   int           `json:"likeCount"`
				RepostCount int           `json:"repostCount"`
				ReplyCount  int           `json:"replyCount"`
			} `json:"post"`
		} `json:"thread"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, blueskyAPIBase+"/app.bsky.feed.getPostThread?"+q.Encode(), &resp); err != nil {
		return models.Note{}, fmt.Errorf("bluesky: %w", err)
	}
	post := resp.Thread.Post
	if post == nil {
		return models.Note{}, fmt.Errorf("bluesky: %w: post not found", apperr.ErrParse)
	}

	handle := firstNonEmpty(post.Author.Handle, actor)
	content := post.Record.Text
	if ext := post.Embed; ext != nil && ext.External != nil && ext.External.URI != "" {
		content += "\n\n[" + firstNonEmpty(ext.External.Title, ext.External.URI) + "](" + ext.External.URI + ")"
	}

	rec := models.Record{}.
		Set("id", rkey).
		Set("url", "https://bsky.app/profile/"+handle+"/post/"+rkey).
		Set("author", firstNonEmpty(post.Author.DisplayName, handle)).
		Set("handle", handle).
		Set("authorURL", "https://bsky.app/profile/"+handle).
		Set("content", content).
		Set("published", e.r.date(post.Record.CreatedAt)).
		Set("media", e.r.media(ctx, post.Embed.attachments())).
		Set("likes", post.LikeCount).
		Set("reposts", post.RepostCount).
		Set("replyCount", post.ReplyCount)
	return e.r.note(e.cfg, TypeBluesky, rec, createdAt), nil
}
