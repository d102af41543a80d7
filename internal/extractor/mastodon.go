package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

// mastodonRe captures the instance host, the account and the status id.
var mastodonRe = regexp.MustCompile(`^(https?)://([a-z0-9.-]+\.[a-z]{2,}(?::\d+)?)/@(\w+)(?:@[\w.-]+)?/(\d+)/?(?:[?#]\S*)?$`)

// Mastodon saves toots through the instance's public API.
type Mastodon struct {
	r   *renderer
	cfg config.MastodonConfig
}

type mastodonStatus struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	Content   string `json:"content"`
	Account   struct {
		DisplayName string `json:"display_name"`
		Username    string `json:"username"`
		Acct        string `json:"acct"`
		URL         string `json:"url"`
	} `json:"account"`
	MediaAttachments []struct {
		Type        string `json:"type"`
		URL         string `json:"url"`
		PreviewURL  string `json:"preview_url"`
		Description string `json:"description"`
	} `json:"media_attachments"`
	Reblog *mastodonStatus `json:"reblog"`
}

func (s *mastodonStatus) author() string {
	return firstNonEmpty(s.Account.DisplayName, s.Account.Username, s.Account.Acct)
}

func (s *mastodonStatus) attachments() []models.MediaAttachment {
	out := make([]models.MediaAttachment, 0, len(s.MediaAttachments))
	for _, a := range s.MediaAttachments {
		m := models.MediaAttachment{URL: a.URL, Description: a.Description, Type: a.Type}
		if a.Type != models.MediaImage {
			m.Thumbnail = a.PreviewURL
		}
		out = append(out, m)
	}
	return out
}

func (e *Mastodon) Name() string { return NameMastodon }

func (e *Mastodon) Test(_ context.Context, input string) bool {
	return mastodonRe.MatchString(strings.TrimSpace(input))
}

func (e *Mastodon) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := mastodonRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("mastodon: %w: not a status URL", apperr.ErrParse)
	}
	api := m[1] + "://" + m[2] + "/api/v1/statuses/" + m[4]

	var status mastodonStatus
	if err := fetch.GetJSON(ctx, e.r.fetcher, api, &status); err != nil {
		return models.Note{}, fmt.Errorf("mastodon: %w", err)
	}
	s := &status
	if s.Reblog != nil {
		s = s.Reblog
	}
	statusURL := firstNonEmpty(s.URL, strings.TrimSpace(input))

	var replies string
	if e.cfg.SaveReplies {
		var err error
		if replies, err = e.replies(ctx, api); err != nil {
			e.r.logger.Warn("mastodon: replies unavailable",
				slog.String("url", statusURL),
				slog.String("error", err.Error()))
		}
	}

	rec := models.Record{}.
		Set("id", s.ID).
		Set("url", statusURL).
		Set("author", s.author()).
		Set("handle", s.Account.Acct).
		Set("authorURL", s.Account.URL).
		Set("content", e.r.markdown(ctx, s.Content, statusURL)).
		Set("published", e.r.date(s.CreatedAt)).
		Set("media", e.r.media(ctx, s.attachments())).
		Set("replies", replies)
	return e.r.note(e.cfg.SourceConfig, TypeMastodon, rec, createdAt), nil
}

// replies renders the status's descendants in thread order.
func (e *Mastodon) replies(ctx context.Context, api string) (string, error) {
	var thread struct {
		Descendants []mastodonStatus `json:"descendants"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, api+"/context", &thread); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(thread.Descendants))
	for _, d := range thread.Descendants {
		var b strings.Builder
		fmt.Fprintf(&b, "### [%s](%s) (%s)\n\n", d.author(), d.Account.URL, e.r.date(d.CreatedAt))
		b.WriteString(e.r.markdown(ctx, d.Content, d.URL))
		if media := e.r.media(ctx, d.attachments()); media != "" {
			b.WriteString("\n\n")
			b.WriteString(media)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n"), nil
}
