package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/product"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// ProductService is the slice of the product service the handlers need.
type ProductService interface {
	Create(ctx context.Context, profileID domain.ProfileID, in product.Input) (*product.Product, error)
	Get(ctx context.Context, id domain.ProductID) (*product.Product, error)
	Update(ctx context.Context, id domain.ProductID, upd product.Update) (*product.Product, error)
	Delete(ctx context.Context, id domain.ProductID) error
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*product.Product, error)
}

type productHandler struct {
	products ProductService
	profiles ProfileService
	authz    Authorizer
}

func (h *productHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileAuthorized(w, r)
	if !ok {
		return
	}
	var in product.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.products.Create(r.Context(), profileID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *productHandler) handleList(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileAuthorized(w, r)
	if !ok {
		return
	}
	out, err := h.products.ListByProfile(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *productHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.itemAuthorized(w, r)
	if !ok {
		return
	}
	var upd product.Update
	if err := decode(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.products.Update(r.Context(), p.ID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *productHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.itemAuthorized(w, r)
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), p.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *productHandler) profileAuthorized(w http.ResponseWriter, r *http.Request) (domain.ProfileID, bool) {
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

func (h *productHandler) itemAuthorized(w http.ResponseWriter, r *http.Request) (*product.Product, bool) {
	id, err := domain.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return nil, false
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if !h.controls(w, r, p.Profile) {
		return nil, false
	}
	return p, true
}

func (h *productHandler) controls(w http.ResponseWriter, r *http.Request, profileID domain.ProfileID) bool {
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
