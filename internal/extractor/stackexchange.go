package extractor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

// stackExchangeRe captures the site host and the question id across the
// network's domains.
var stackExchangeRe = regexp.MustCompile(`^https?://((?:[\w-]+\.)?stackexchange\.com|(?:[a-z]{2}\.)?stackoverflow\.com|superuser\.com|serverfault\.com|askubuntu\.com|mathoverflow\.net|stackapps\.com)/(?:questions|q)/(\d+)(?:[/?#]\S*)?$`)

const answerSeparator = "\n\n***\n\n"

// StackExchange saves a question and its top answers from the page DOM.
type StackExchange struct {
	r   *renderer
	cfg config.StackExchangeConfig
}

func (e *StackExchange) Name() string { return NameStackExchange }

func (e *StackExchange) Test(_ context.Context, input string) bool {
	return stackExchangeRe.MatchString(strings.TrimSpace(input))
}

func (e *StackExchange) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := stackExchangeRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("stackexchange: %w: not a question URL", apperr.ErrParse)
	}
	questionURL := "https://" + m[1] + "/questions/" + m[2]

	doc, base, err := fetch.GetDocument(ctx, e.r.fetcher, questionURL, fetch.WithDesktopUserAgent())
	if err != nil {
		return models.Note{}, fmt.Errorf("stackexchange: %w", err)
	}
	pageURL := questionURL
	if base != nil {
		pageURL = base.String()
	}

	title := strings.TrimSpace(doc.Find("#question-header h1").First().Text())
	question := doc.Find("#question").First()
	if title == "" || question.Length() == 0 {
		return models.Note{}, fmt.Errorf("stackexchange: %w: question not found in page", apperr.ErrParse)
	}
	body, _ := question.Find(".js-post-body").First().Html()
	author, authorURL := postAuthor(question, pageURL)

	answers := doc.Find("#answers .answer")
	rendered := make([]string, 0, e.cfg.MaxAnswers)
	answers.EachWithBreak(func(i int, a *goquery.Selection) bool {
		if e.cfg.MaxAnswers > 0 && i >= e.cfg.MaxAnswers {
			return false
		}
		rendered = append(rendered, e.answer(ctx, a, pageURL))
		return true
	})

	rec := models.Record{}.
		Set("id", m[2]).
		Set("title", title).
		Set("url", pageURL).
		Set("question", e.r.markdown(ctx, body, pageURL)).
		Set("author", author).
		Set("authorURL", authorURL).
		Set("answers", strings.Join(rendered, answerSeparator)).
		Set("answerCount", answers.Length())
	return e.r.note(e.cfg.SourceConfig, TypeStackExchange, rec, createdAt), nil
}

func (e *StackExchange) answer(ctx context.Context, a *goquery.Selection, pageURL string) string {
	body, _ := a.Find(".js-post-body").First().Html()
	author, authorURL := postAuthor(a, pageURL)
	score := strings.TrimSpace(a.Find(".js-vote-count").First().Text())

	var b strings.Builder
	b.WriteString("## Answer")
	if author != "" {
		fmt.Fprintf(&b, " by [%s](%s)", author, authorURL)
	}
	if score != "" {
		fmt.Fprintf(&b, " (score %s)", score)
	}
	if a.HasClass("accepted-answer") {
		b.WriteString(" ✓")
	}
	b.WriteString("\n\n")
	b.WriteString(e.r.markdown(ctx, body, pageURL))
	return b.String()
}

// postAuthor reads the owner signature of a post. Edited posts carry the
// editor's card first, so the last card wins.
func postAuthor(post *goquery.Selection, pageURL string) (string, string) {
	link := post.Find(".post-signature .user-details a").Last()
	name := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")
	if href == "" {
		return name, ""
	}
	if base, err := url.Parse(pageURL); err == nil {
		href = fetch.Resolve(base, href)
	}
	return name, href
}
