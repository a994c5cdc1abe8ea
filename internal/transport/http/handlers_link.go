package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/link"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// LinkService is the slice of the link service the handlers need.
type LinkService interface {
	Create(ctx context.Context, profileID domain.ProfileID, in link.Input) (*link.Link, error)
	Get(ctx context.Context, id domain.LinkID) (*link.Link, error)
	Update(ctx context.Context, id domain.LinkID, upd link.Update) (*link.Link, error)
	Delete(ctx context.Context, id domain.LinkID) error
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*link.Link, error)
}

type linkHandler struct {
	links    LinkService
	profiles ProfileService
	authz    Authorizer
}

func (h *linkHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileAuthorized(w, r)
	if !ok {
		return
	}
	var in link.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.links.Create(r.Context(), profileID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *linkHandler) handleList(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileAuthorized(w, r)
	if !ok {
		return
	}
	out, err := h.links.ListByProfile(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *linkHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	l, ok := h.itemAuthorized(w, r)
	if !ok {
		return
	}
	var upd link.Update
	if err := decode(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.links.Update(r.Context(), l.ID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *linkHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	l, ok := h.itemAuthorized(w, r)
	if !ok {
		return
	}
	if err := h.links.Delete(r.Context(), l.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// profileAuthorized checks the principal controls the enclosing profile named
// in the path.
func (h *linkHandler) profileAuthorized(w http.ResponseWriter, r *http.Request) (domain.ProfileID, bool) {
	profileID, err := profileID(r)
	if err != nil {
		writeError(w, err)
		return domain.ProfileID{}, false
	}
	if !h.controls(w, r, profileID) {
		return domain.ProfileID{}, false
	}
	return profileID, true
}

// itemAuthorized loads the link and checks control over its profile.
func (h *linkHandler) itemAuthorized(w http.ResponseWriter, r *http.Request) (*link.Link, bool) {
	id, err := domain.ParseLinkID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid link id"))
		return nil, false
	}
	l, err := h.links.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if !h.controls(w, r, l.Profile) {
		return nil, false
	}
	return l, true
}

func (h *linkHandler) controls(w http.ResponseWriter, r *http.Request, profileID domain.ProfileID) bool {
	owner, err := h.profiles.ProfileOwner(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return false
	}
	ok, err := h.authz.IsController(r.Context(), requestcontext.UserID(r.Context()), owner)
	if err != nil {
		writeError(w, err)
		return false
	}
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "not allowed to manage this profile"))
		return false
	}
	return true
}
