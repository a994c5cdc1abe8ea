package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardlink/internal/team"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// TeamService is the slice of the team service the handlers need.
type TeamService interface {
	Create(ctx context.Context) (*team.Team, error)
	Get(ctx context.Context, id domain.TeamID) (*team.Team, error)
	Delete(ctx context.Context, id domain.TeamID) error
	Invite(ctx context.Context, id domain.TeamID, emails []string) error
	Join(ctx context.Context, id domain.TeamID) error
	Leave(ctx context.Context) error
	RemoveMember(ctx context.Context, id domain.TeamID, userID domain.UserID) error
	CreateMember(ctx context.Context, id domain.TeamID, username, email string) (domain.UserID, error)
}

type teamHandler struct {
	teams TeamService
	authz Authorizer
}

func (h *teamHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	t, err := h.teams.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *teamHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.controlled(w, r)
	if !ok {
		return
	}
	t, err := h.teams.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *teamHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.controlled(w, r)
	if !ok {
		return
	}
	if err := h.teams.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	Emails []string `json:"emails"`
}

func (h *teamHandler) handleInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.controlled(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "emails are required"))
		return
	}
	if err := h.teams.Invite(r.Context(), id, req.Emails); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type createMemberRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *teamHandler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.controlled(w, r)
	if !ok {
		return
	}
	var req createMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, err := h.teams.CreateMember(r.Context(), id, req.Username, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": userID.String()})
}

func (h *teamHandler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.controlled(w, r)
	if !ok {
		return
	}
	userID, err := domain.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}
	if err := h.teams.RemoveMember(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type joinRequest struct {
	Team domain.TeamID `json:"team"`
}

func (h *teamHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Team.IsNil() {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "team is required"))
		return
	}
	if err := h.teams.Join(r.Context(), req.Team); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *teamHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.Leave(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// controlled parses the path ID and checks the principal holds team
// authority (platform admin, super admin, or a team admin).
func (h *teamHandler) controlled(w http.ResponseWriter, r *http.Request) (domain.TeamID, bool) {
	id, err := domain.ParseTeamID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid team id"))
		return domain.TeamID{}, false
	}
	ok, err := h.authz.IsTeamController(r.Context(), requestcontext.UserID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return domain.TeamID{}, false
	}
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "not allowed to manage this team"))
		return domain.TeamID{}, false
	}
	return id, true
}
