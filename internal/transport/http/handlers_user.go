package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/user"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// UserService is the slice of the user service the handlers need.
type UserService interface {
	Create(ctx context.Context, in user.Input) (*user.User, error)
	Get(ctx context.Context, id domain.UserID) (*user.User, error)
	Update(ctx context.Context, id domain.UserID, upd user.Update) (*user.User, error)
}

type userHandler struct {
	users UserService
	authz Authorizer
}

// handleCreate registers an account. Credential handling lives outside this
// service, so account creation is an admin operation.
func (h *userHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if requestcontext.Role(r.Context()) != "admin" {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "platform admin required"))
		return
	}
	var in user.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *userHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorized(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *userHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorized(w, r)
	if !ok {
		return
	}
	var upd user.Update
	if err := decode(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *userHandler) authorized(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return domain.UserID{}, false
	}
	ok, err := h.authz.IsController(r.Context(), requestcontext.UserID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return domain.UserID{}, false
	}
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "not allowed to manage this user"))
		return domain.UserID{}, false
	}
	return id, true
}
