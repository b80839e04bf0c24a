package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/deck-analyst/internal/analysis"
	"github.com/ramonehamilton/deck-analyst/internal/api/response"
	"github.com/ramonehamilton/deck-analyst/internal/inference"
)

// ContextInferrer runs context inference.
type ContextInferrer interface {
	Infer(ctx context.Context, req inference.Request) (*inference.InferredContext, error)
}

// Analyzer runs the full validated analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.AnalyzeRequest) (*analysis.Report, error)
}

// DeckHandler handles deck context and analysis requests.
type DeckHandler struct {
	inferrer ContextInferrer
	analyzer Analyzer
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(inferrer ContextInferrer, analyzer Analyzer) *DeckHandler {
	return &DeckHandler{inferrer: inferrer, analyzer: analyzer}
}

// Context returns the inferred context for a decklist. A missing deck_text
// fails request validation (422); text with no readable entries is a 400.
func (h *DeckHandler) Context(w http.ResponseWriter, r *http.Request) {
	var req analysis.AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}

	format, _ := inference.ParseFormat(req.Format)
	ictx, err := h.inferrer.Infer(r.Context(), inference.Request{
		DeckText:    req.DeckText,
		UserMessage: req.UserMessage,
		Format:      format,
		Commander:   req.Commander,
		Colors:      req.Colors,
		Plan:        inference.Plan(req.Plan),
		Currency:    req.Currency,
	})
	if err != nil {
		if errors.Is(err, inference.ErrEmptyDecklist) {
			response.BadRequest(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}

	response.Success(w, ictx)
}

// Analysis generates a validated analysis for a decklist. Status mapping
// matches Context, plus 409 for a duplicate in-flight request id.
func (h *DeckHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		response.ServiceUnavailable(w, errors.New("no generator configured"))
		return
	}

	var req analysis.AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RequestID == "" {
		req.RequestID = middleware.GetReqID(r.Context())
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	switch {
	case err == nil:
		response.Success(w, report)
	case errors.Is(err, inference.ErrEmptyDecklist):
		response.BadRequest(w, err)
	case errors.Is(err, analysis.ErrDoubleCall):
		response.Conflict(w, err)
	default:
		response.InternalError(w, err)
	}
}
