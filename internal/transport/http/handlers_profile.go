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

// ProfileService is the slice of the profile service the handlers need.
type ProfileService interface {
	Create(ctx context.Context, ownerID domain.UserID, in profile.Input) (*profile.Profile, error)
	Get(ctx context.Context, id domain.ProfileID) (*profile.Profile, error)
	Update(ctx context.Context, id domain.ProfileID, upd profile.Update) (*profile.Profile, error)
	Delete(ctx context.Context, id domain.ProfileID) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]*profile.Profile, error)
	ProfileOwner(ctx context.Context, id domain.ProfileID) (domain.UserID, error)
}

// LiveSwitcher switches the principal's live profile; the user service
// implements it.
type LiveSwitcher interface {
	SetLive(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error
}

// Authorizer is the ownership resolver the handlers consult before touching
// someone else's resources.
type Authorizer interface {
	IsController(ctx context.Context, principal, owner domain.UserID) (bool, error)
	IsTeamController(ctx context.Context, principal domain.UserID, teamID domain.TeamID) (bool, error)
}

type profileHandler struct {
	profiles ProfileService
	users    LiveSwitcher
	authz    Authorizer
}

func (h *profileHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in profile.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.profiles.Create(r.Context(), requestcontext.UserID(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *profileHandler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.profiles.ListByUser(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *profileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorized(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *profileHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorized(w, r)
	if !ok {
		return
	}
	var upd profile.Update
	if err := decode(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.profiles.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *profileHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorized(w, r)
	if !ok {
		return
	}
	if err := h.profiles.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetLive makes the profile the principal's live profile. Ownership is
// enforced inside the user service.
func (h *profileHandler) handleSetLive(w http.ResponseWriter, r *http.Request) {
	id, err := profileID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.SetLive(r.Context(), requestcontext.UserID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorized parses the path ID and checks the principal controls the
// profile's owner (admin, the owner, or their team's admins).
func (h *profileHandler) authorized(w http.ResponseWriter, r *http.Request) (domain.ProfileID, bool) {
	id, err := profileID(r)
	if err != nil {
		writeError(w, err)
		return domain.ProfileID{}, false
	}
	owner, err := h.profiles.ProfileOwner(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return domain.ProfileID{}, false
	}
	ok, err := h.authz.IsController(r.Context(), requestcontext.UserID(r.Context()), owner)
	if err != nil {
		writeError(w, err)
		return domain.ProfileID{}, false
	}
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "not allowed to manage this profile"))
		return domain.ProfileID{}, false
	}
	return id, true
}

func profileID(r *http.Request) (domain.ProfileID, error) {
	id, err := domain.ParseProfileID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.ProfileID{}, dErrors.New(dErrors.CodeBadRequest, "invalid profile id")
	}
	return id, nil
}
