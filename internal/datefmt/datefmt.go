// Package datefmt is the single date-formatting contract used by every
// extractor. Formats are strftime strings ("%Y-%m-%d %H:%M").
package datefmt

import (
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// Defaults used when a format is left empty in the configuration.
const (
	DefaultTitleFormat   = "%Y-%m-%d %H-%M-%S"
	DefaultContentFormat = "%Y-%m-%d"
	DefaultFolderFormat  = "%Y-%m-%d"
)

// Format renders t with the strftime format, falling back to fallback when
// format is empty.
func Format(t time.Time, format, fallback string) string {
	if t.IsZero() {
		return ""
	}
	if format == "" {
		format = fallback
	}
	return strftime.Format(format, t)
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseAny parses the date shapes returned by the supported sources:
// RFC 3339 variants, plain dates, English long dates and unix seconds.
// It returns the zero time when nothing matches.
func ParseAny(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Reformat parses s with ParseAny and renders it with format. Unparseable
// input is returned unchanged so no information is lost.
func Reformat(s, format, fallback string) string {
	t := ParseAny(s)
	if t.IsZero() {
		return s
	}
	return Format(t, format, fallback)
}

// Duration renders seconds as H:MM:SS or M:SS.
func Duration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return strconv.Itoa(h) + ":" + pad2(m) + ":" + pad2(s)
	}
	return strconv.Itoa(m) + ":" + pad2(s)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
