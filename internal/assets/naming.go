package assets

import (
	"net/url"
	"path"
	"strings"

	"github.com/starford/readitlater/internal/fspath"
)

var mimeToExt = map[string]string{
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/svg+xml":   "svg",
	"image/avif":      "avif",
	"image/bmp":       "bmp",
	"image/x-icon":    "ico",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"audio/mpeg":      "mp3",
	"audio/ogg":       "ogg",
	"application/pdf": "pdf",
}

var knownExtensions = func() map[string]bool {
	m := map[string]bool{"jpeg": true, "tif": true, "tiff": true, "m4a": true, "wav": true}
	for _, ext := range mimeToExt {
		m[ext] = true
	}
	return m
}()

// extensionFor prefers a media extension found in the URL path and falls
// back to the declared media type.
func extensionFor(rawURL, mediaType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
		if knownExtensions[ext] {
			return ext
		}
	}
	return mimeToExt[strings.ToLower(mediaType)]
}

// baseName picks the alt text, else the last URL path segment without its
// extension, else "media".
func baseName(alt, rawURL string) string {
	if name := fspath.NormalizeFilename(alt); name != "" {
		return name
	}
	if u, err := url.Parse(rawURL); err == nil {
		seg := path.Base(u.Path)
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		seg = strings.TrimSuffix(seg, path.Ext(seg))
		if name := fspath.NormalizeFilename(seg); name != "" && name != "." {
			return name
		}
	}
	return fallbackBaseName
}
