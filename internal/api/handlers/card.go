package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-analyst/internal/api/response"
	"github.com/ramonehamilton/deck-analyst/internal/cards"
)

// CardResolver resolves a single card.
type CardResolver interface {
	ResolveDetailed(ctx context.Context, name string) (*cards.CardFact, error)
}

// CardHandler handles card lookups.
type CardHandler struct {
	resolver CardResolver
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(resolver CardResolver) *CardHandler {
	return &CardHandler{resolver: resolver}
}

// GetCardByName returns the resolved facts for a card name.
func (h *CardHandler) GetCardByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, errors.New("card name is required"))
		return
	}

	fact, err := h.resolver.ResolveDetailed(r.Context(), name)
	if err != nil {
		if errors.Is(err, cards.ErrCardNotFound) {
			response.NotFound(w, err)
			return
		}
		response.ServiceUnavailable(w, err)
		return
	}

	response.Success(w, fact)
}
