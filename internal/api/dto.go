package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/models"
	"github.com/starford/readitlater/internal/noteservice"
)

// CreateNotesRequest is the request body for ingesting content.
type CreateNotesRequest struct {
	Content            string `json:"content" example:"https://example.com/post" validate:"required"`
	FileExistsStrategy string `json:"file_exists_strategy,omitempty" example:"append"`
}

func (r *CreateNotesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.FileExistsStrategy,
			validation.In(config.StrategyAsk, config.StrategyNothing, config.StrategyAppend)),
	)
}

// CreateNotesResponse lists one result per ingested item, in input order.
type CreateNotesResponse struct {
	Results []noteservice.Result `json:"results" validate:"required"`
}

// PreviewRequest is the request body for previewing content.
type PreviewRequest struct {
	Content string `json:"content" example:"https://example.com/post" validate:"required"`
}

func (r *PreviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// PreviewResponse is an extracted note that was not written, plus its
// markdown rendered to HTML.
type PreviewResponse struct {
	Extractor string      `json:"extractor" example:"website" validate:"required"`
	Note      models.Note `json:"note" validate:"required"`
	HTML      string      `json:"html" validate:"required"`
}

// ExtractorsResponse lists enabled extractors in selection order.
type ExtractorsResponse struct {
	Extractors []string `json:"extractors" validate:"required"`
}
