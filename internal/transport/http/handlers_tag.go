package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/tag"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// TagService is the slice of the tag service the handlers need.
type TagService interface {
	Provision(ctx context.Context, customID string) (*tag.Provisioned, error)
	Get(ctx context.Context, id domain.TagID) (*tag.Tag, error)
	Activate(ctx context.Context, identifier, claimCode string) (*tag.Tag, error)
	Release(ctx context.Context, id domain.TagID) error
	Delete(ctx context.Context, id domain.TagID) error
}

type tagHandler struct {
	tags TagService
}

type provisionRequest struct {
	CustomID string `json:"customId"`
}

// handleProvision mints a tag. Platform admins only; the claim code in the
// response is shown exactly once.
func (h *tagHandler) handleProvision(w http.ResponseWriter, r *http.Request) {
	if requestcontext.Role(r.Context()) != "admin" {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "platform admin required"))
		return
	}
	var req provisionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.tags.Provision(r.Context(), req.CustomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *tagHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := h.tags.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type activateRequest struct {
	ClaimCode string `json:"claimCode"`
}

// handleActivate binds the tag to the authenticated caller. The path segment
// takes a tag ID or a customId.
func (h *tagHandler) handleActivate(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "id")
	var req activateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := h.tags.Activate(r.Context(), identifier, req.ClaimCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *tagHandler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	id, err := tagID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.tags.Release(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *tagHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if requestcontext.Role(r.Context()) != "admin" {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "platform admin required"))
		return
	}
	id, err := tagID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.tags.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func tagID(r *http.Request) (domain.TagID, error) {
	id, err := domain.ParseTagID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.TagID{}, dErrors.New(dErrors.CodeBadRequest, "invalid tag id")
	}
	return id, nil
}
