// Package htmlmd converts extracted HTML fragments into markdown and hands
// embedded media to the asset pipeline.
package htmlmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/starford/readitlater/internal/apperr"
)

// Localizer rewrites remote media references in markdown to local copies.
type Localizer interface {
	Localize(ctx context.Context, markdown, dir string) string
}

// removed lists elements that never carry readable content.
const removed = "script, style, noscript, template, iframe, form, button, svg"

// lazySrcAttrs are attributes used by lazy-loading scripts in place of src.
var lazySrcAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-url"}

// Converter is the shared HTML to markdown step.
type Converter struct {
	localizer Localizer
}

// New returns a Converter. A nil localizer disables media download.
func New(localizer Localizer) *Converter {
	return &Converter{localizer: localizer}
}

// Convert turns an HTML fragment into markdown. Relative links resolve
// against pageURL. When assetDir is non-empty, remote images are
// downloaded into it.
func (c *Converter) Convert(ctx context.Context, html, pageURL, assetDir string) (string, error) {
	cleaned, err := Clean(html)
	if err != nil {
		return "", err
	}

	var md string
	if domain := domainOf(pageURL); domain != "" {
		md, err = htmltomarkdown.ConvertString(cleaned, converter.WithDomain(domain))
	} else {
		md, err = htmltomarkdown.ConvertString(cleaned)
	}
	if err != nil {
		return "", fmt.Errorf("htmlmd: convert: %w: %v", apperr.ErrParse, err)
	}
	md = strings.TrimSpace(md)

	if c.localizer != nil && assetDir != "" {
		md = c.localizer.Localize(ctx, md, assetDir)
	}
	return md, nil
}

// Clean strips non-content elements and promotes lazy-loaded image sources.
func Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("htmlmd: parse: %w: %v", apperr.ErrParse, err)
	}
	doc.Find(removed).Remove()
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" && !strings.HasPrefix(src, "data:") {
			return
		}
		for _, attr := range lazySrcAttrs {
			if v, ok := img.Attr(attr); ok && v != "" {
				img.SetAttr("src", v)
				return
			}
		}
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("htmlmd: render: %w: %v", apperr.ErrParse, err)
	}
	return out, nil
}

func domainOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
