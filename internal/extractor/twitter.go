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

const twitterOEmbed = "https://publish.twitter.com/oembed"

var twitterRe = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com/(\w{1,15})/status(?:es)?/(\d+)(?:[/?#]\S*)?$`)

// Twitter saves tweets from the publish oEmbed blockquote.
type Twitter struct {
	r   *renderer
	cfg config.SourceConfig
}

func (e *Twitter) Name() string { return NameTwitter }

func (e *Twitter) Test(_ context.Context, input string) bool {
	return twitterRe.MatchString(strings.TrimSpace(input))
}

func (e *Twitter) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := twitterRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("twitter: %w: not a tweet URL", apperr.ErrParse)
	}
	tweetURL := "https://twitter.com/" + m[1] + "/status/" + m[2]

	var data struct {
		URL        string `json:"url"`
		AuthorName string `json:"author_name"`
		AuthorURL  string `json:"author_url"`
		HTML       string `json:"html"`
	}
	extra := url.Values{"omit_script": {"true"}, "dnt": {"true"}}
	if err := fetch.GetJSON(ctx, e.r.fetcher, oembedURL(twitterOEmbed, tweetURL, extra), &data); err != nil {
		return models.Note{}, fmt.Errorf("twitter: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(data.HTML))
	if err != nil {
		return models.Note{}, fmt.Errorf("twitter: %w: %v", apperr.ErrParse, err)
	}
	quote := doc.Find("blockquote").First()
	body, _ := quote.Find("p").First().Html()
	// The last link in the embed is the permalink labelled with the date.
	published := strings.TrimSpace(quote.Find("a").Last().Text())

	rec := models.Record{}.
		Set("id", m[2]).
		Set("url", firstNonEmpty(data.URL, tweetURL)).
		Set("author", firstNonEmpty(data.AuthorName, m[1])).
		Set("handle", m[1]).
		Set("authorURL", firstNonEmpty(data.AuthorURL, "https://twitter.com/"+m[1])).
		Set("content", e.r.markdown(ctx, body, tweetURL)).
		Set("published", e.r.date(published))
	return e.r.note(e.cfg, TypeTweet, rec, createdAt), nil
}
