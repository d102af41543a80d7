// Package models defines the domain types for readitlater.
package models

import (
	"time"

	"github.com/starford/readitlater/internal/fspath"
)

// DefaultExtension is the extension given to every rendered note.
const DefaultExtension = "md"

// Note is the normalized result of ingesting one piece of content.
// It is built once by an extractor and never mutated afterwards.
type Note struct {
	FileName      string    `json:"file_name"`
	FileExtension string    `json:"file_extension"`
	Content       string    `json:"content"`
	ContentType   string    `json:"content_type"`
	CreatedAt     time.Time `json:"created_at"`
	// FilePath is empty until the persistence coordinator resolves it.
	FilePath string `json:"file_path,omitempty"`
}

// NewNote returns a markdown note with a sanitized file name.
func NewNote(fileName, content, contentType string, createdAt time.Time) Note {
	return Note{
		FileName:      fspath.NormalizeFilename(fileName),
		FileExtension: DefaultExtension,
		Content:       content,
		ContentType:   contentType,
		CreatedAt:     createdAt,
	}
}

// FullName returns the file name with its extension.
func (n Note) FullName() string {
	if n.FileExtension == "" {
		return n.FileName
	}
	return n.FileName + "." + n.FileExtension
}

// WithFilePath returns a copy of n with its resolved path set.
func (n Note) WithFilePath(path string) Note {
	n.FilePath = path
	return n
}
