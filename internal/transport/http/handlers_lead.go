package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/lead"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
)

// LeadService is the slice of the connection ledger the handlers need. The
// service enforces per-lead access itself.
type LeadService interface {
	Toggle(ctx context.Context, in lead.Input) (*lead.Lead, error)
	List(ctx context.Context) ([]*lead.WithProfile, error)
	Get(ctx context.Context, id domain.LeadID) (*lead.Lead, error)
	Update(ctx context.Context, id domain.LeadID, upd lead.Update) (*lead.Lead, error)
	Delete(ctx context.Context, id domain.LeadID) error
}

type leadHandler struct {
	leads LeadService
}

// handleToggle flips a connection. 200 with the lead on create, 204 on
// toggle-off.
func (h *leadHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	var in lead.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.leads.Toggle(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	if l == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *leadHandler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.leads.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *leadHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := h.leads.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *leadHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var upd lead.Update
	if err := decode(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.leads.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *leadHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.leads.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func leadID(r *http.Request) (domain.LeadID, error) {
	id, err := domain.ParseLeadID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.LeadID{}, dErrors.New(dErrors.CodeBadRequest, "invalid lead id")
	}
	return id, nil
}
