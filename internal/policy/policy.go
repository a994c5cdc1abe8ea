// Package policy answers "may this principal act on that resource". It
// centralizes the control chain so handlers never reimplement it: platform
// admin, then direct owner, then admin of the owner's team.
package policy

import (
	"context"
	"errors"

	"cardlink/internal/team"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
)

// Users and Teams are the read slices the resolver needs.
type Users interface {
	FindByID(ctx context.Context, id domain.UserID) (*user.User, error)
}

type Teams interface {
	FindByID(ctx context.Context, id domain.TeamID) (*team.Team, error)
}

type Authorizer struct {
	users Users
	teams Teams
}

func NewAuthorizer(users Users, teams Teams) *Authorizer {
	return &Authorizer{users: users, teams: teams}
}

// IsController reports whether principal controls resources owned by owner.
// The chain short-circuits in precedence order: platform admin, the owner
// themselves, then a team admin of the owner's team.
func (a *Authorizer) IsController(ctx context.Context, principal, owner domain.UserID) (bool, error) {
	if principal.IsNil() {
		return false, nil
	}
	p, err := a.users.FindByID(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "principal lookup failed")
	}
	if p.IsPlatformAdmin() {
		return true, nil
	}
	if principal == owner {
		return true, nil
	}
	if owner.IsNil() {
		// Ownerless resources (shared profiles) answer through their team.
		return false, nil
	}

	o, err := a.users.FindByID(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "owner lookup failed")
	}
	if !o.InTeam() || p.Team != o.Team {
		return false, nil
	}
	return a.teamAdmin(ctx, p.ID, o.Team)
}

// IsTeamController reports whether principal may run team-scoped operations
// on teamID: platform admins and the team's admins.
func (a *Authorizer) IsTeamController(ctx context.Context, principal domain.UserID, teamID domain.TeamID) (bool, error) {
	if principal.IsNil() {
		return false, nil
	}
	p, err := a.users.FindByID(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "principal lookup failed")
	}
	if p.IsPlatformAdmin() {
		return true, nil
	}
	return a.teamAdmin(ctx, principal, teamID)
}

func (a *Authorizer) teamAdmin(ctx context.Context, principal domain.UserID, teamID domain.TeamID) (bool, error) {
	t, err := a.teams.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "team lookup failed")
	}
	return t.IsAdmin(principal), nil
}
