package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/profile"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// CardService resolves an identifier to the public card payload.
type CardService interface {
	Card(ctx context.Context, identifier string, principal domain.UserID) (*profile.Card, error)
}

type cardHandler struct {
	cards CardService
}

// handleCard serves the public card route. Anonymous viewers are welcome; an
// authenticated principal only matters for the view counter.
func (h *cardHandler) handleCard(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "identifier is required"))
		return
	}
	card, err := h.cards.Card(r.Context(), identifier, requestcontext.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
