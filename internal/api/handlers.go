package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/noteservice"
)

const maxRequestBytes = 1 << 20

// NoteEvents receives one event per note that was written or skipped.
type NoteEvents interface {
	PublishNote(kind, path string)
}

// Handler holds API route handlers.
type Handler struct {
	svc      *noteservice.Service
	events   NoteEvents
	markdown *markdownRenderer
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *noteservice.Service, events NoteEvents) *Handler {
	return &Handler{svc: svc, events: events, markdown: newMarkdownRenderer()}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// CreateNotes handles POST /api/notes.
//
//	@Summary		Ingest content, one note per item
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNotesRequest	true	"Content to ingest"
//	@Success		200		{object}	CreateNotesResponse
//	@Failure		400		{object}	errorResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNotes(w http.ResponseWriter, r *http.Request) {
	var req CreateNotesRequest
	if !decode(w, r, &req) {
		return
	}

	var opts []noteservice.ProcessOption
	if req.FileExistsStrategy != "" {
		opts = append(opts, noteservice.WithStrategy(req.FileExistsStrategy))
	}
	results := h.svc.Process(r.Context(), req.Content, opts...)

	if h.events != nil {
		for _, res := range results {
			if res.Status != noteservice.StatusFailed {
				h.events.PublishNote(res.Status, res.Path)
			}
		}
	}
	respond(w, http.StatusOK, CreateNotesResponse{Results: results})
}

// Preview handles POST /api/preview.
//
//	@Summary		Extract content without writing a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Content to preview"
//	@Success		200		{object}	PreviewResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		422		{object}	errorResponse
//	@Failure		502		{object}	errorResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.svc.Preview(r.Context(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNoHandler):
			respondError(w, http.StatusUnprocessableEntity, "no extractor can handle this content")
		case errors.Is(err, apperr.ErrParse):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, apperr.ErrFetch):
			respondError(w, http.StatusBadGateway, err.Error())
		default:
			slog.Error("api: preview failed", slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	html, err := h.markdown.Render(p.Note.Content)
	if err != nil {
		slog.Error("api: preview render failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusOK, PreviewResponse{Extractor: p.Extractor, Note: p.Note, HTML: html})
}

// ListExtractors handles GET /api/extractors.
//
//	@Summary		List enabled extractors in selection order
//	@Tags			extractors
//	@Produce		json
//	@Success		200	{object}	ExtractorsResponse
//	@Security		BearerAuth
//	@Router			/extractors [get]
func (h *Handler) ListExtractors(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, ExtractorsResponse{Extractors: h.svc.Chain().Names()})
}
