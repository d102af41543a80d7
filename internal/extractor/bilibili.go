package extractor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/datefmt"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/models"
)

const bilibiliViewAPI = "https://api.bilibili.com/x/web-interface/view"

// bilibiliRe captures a BV id or an av number.
var bilibiliRe = regexp.MustCompile(`^https?://(?:www\.|m\.)?bilibili\.com/video/(BV[0-9A-Za-z]{10}|av(\d+))/?(?:[?#]\S*)?$`)

// Bilibili saves videos through the public view API.
type Bilibili struct {
	r   *renderer
	cfg config.SourceConfig
}

func (e *Bilibili) Name() string { return NameBilibili }

func (e *Bilibili) Test(_ context.Context, input string) bool {
	return bilibiliRe.MatchString(strings.TrimSpace(input))
}

func (e *Bilibili) PrepareNote(ctx context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	m := bilibiliRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return models.Note{}, fmt.Errorf("bilibili: %w: not a video URL", apperr.ErrParse)
	}
	q := url.Values{}
	if m[2] != "" {
		q.Set("aid", m[2])
	} else {
		q.Set("bvid", m[1])
	}

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			BVID     string `json:"bvid"`
			Title    string `json:"title"`
			Desc     string `json:"desc"`
			Pic      string `json:"pic"`
			PubDate  int64  `json:"pubdate"`
			Duration int    `json:"duration"`
			Owner    struct {
				Mid  int64  `json:"mid"`
				Name string `json:"name"`
			} `json:"owner"`
		} `json:"data"`
	}
	if err := fetch.GetJSON(ctx, e.r.fetcher, bilibiliViewAPI+"?"+q.Encode(), &resp); err != nil {
		return models.Note{}, fmt.Errorf("bilibili: %w", err)
	}
	if resp.Code != 0 {
		return models.Note{}, fmt.Errorf("bilibili: %w: api code %d: %s", apperr.ErrParse, resp.Code, resp.Message)
	}
	d := resp.Data
	bvid := firstNonEmpty(d.BVID, m[1])

	var published string
	if d.PubDate > 0 {
		published = e.r.dateOf(time.Unix(d.PubDate, 0).UTC())
	}
	var authorURL string
	if d.Owner.Mid > 0 {
		authorURL = "https://space.bilibili.com/" + strconv.FormatInt(d.Owner.Mid, 10)
	}

	rec := models.Record{}.
		Set("id", bvid).
		Set("title", d.Title).
		Set("url", "https://www.bilibili.com/video/"+bvid).
		Set("author", d.Owner.Name).
		Set("authorURL", authorURL).
		Set("description", d.Desc).
		Set("thumbnail", d.Pic).
		Set("published", published).
		Set("duration", datefmt.Duration(d.Duration)).
		Set("player", fmt.Sprintf(`<iframe src="https://player.bilibili.com/player.html?bvid=%s&autoplay=0" scrolling="no" border="0" frameborder="no" framespacing="0" allowfullscreen="true"></iframe>`, bvid))
	return e.r.note(e.cfg, TypeBilibili, rec, createdAt), nil
}
