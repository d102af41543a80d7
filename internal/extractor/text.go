package extractor

import (
	"context"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/models"
)

// Text stores raw input as a snippet. It claims everything and must be
// registered last.
type Text struct {
	r   *renderer
	cfg config.SourceConfig
}

func (e *Text) Name() string { return NameText }

func (e *Text) Test(context.Context, string) bool { return true }

func (e *Text) PrepareNote(_ context.Context, input string) (models.Note, error) {
	createdAt := e.r.now()
	rec := models.Record{}.Set("content", input)
	return e.r.note(e.cfg, TypeTextSnippet, rec, createdAt), nil
}
