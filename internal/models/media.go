package models

import (
	"fmt"
	"strings"
)

// Media types carried by MediaAttachment.Type.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaGIF   = "gifv"
	MediaAudio = "audio"
)

// MediaAttachment is a remote media resource referenced by a post. It only
// lives until it has been inlined into markdown.
type MediaAttachment struct {
	URL         string
	Thumbnail   string
	Description string
	Type        string
}

// Markdown renders the attachment as a markdown image reference. Videos and
// audio without a thumbnail become plain links.
func (m MediaAttachment) Markdown() string {
	alt := strings.NewReplacer("[", "", "]", "", "\n", " ").Replace(m.Description)
	switch m.Type {
	case MediaVideo, MediaGIF, MediaAudio:
		if m.Thumbnail != "" {
			return fmt.Sprintf("[![%s](%s)](%s)", alt, m.Thumbnail, m.URL)
		}
		label := alt
		if label == "" {
			label = m.Type
		}
		return fmt.Sprintf("[%s](%s)", label, m.URL)
	default:
		return fmt.Sprintf("![%s](%s)", alt, m.URL)
	}
}

// MediaMarkdown renders attachments one per paragraph.
func MediaMarkdown(media []MediaAttachment) string {
	parts := make([]string, 0, len(media))
	for _, m := range media {
		if m.URL == "" {
			continue
		}
		parts = append(parts, m.Markdown())
	}
	return strings.Join(parts, "\n\n")
}
