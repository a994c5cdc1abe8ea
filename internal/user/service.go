package user

import (
	"context"
	"errors"
	"strings"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// ProfileOwners answers who owns a profile; the profile service implements
// it. Kept primitive so this package stays import-free of the profile
// package.
type ProfileOwners interface {
	ProfileOwner(ctx context.Context, id domain.ProfileID) (domain.UserID, error)
}

// Service orchestrates user lifecycle. Credentials and token issuance are
// external collaborators; this service never sees passwords.
type Service struct {
	users    Store
	profiles ProfileOwners
}

func NewService(users Store, profiles ProfileOwners) *Service {
	return &Service{users: users, profiles: profiles}
}

// Input carries the fields accepted at registration.
type Input struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *Service) Create(ctx context.Context, in Input) (*User, error) {
	u, err := New(domain.NewUserID(), in.Username, in.Email, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	// Pre-checks give precise messages; the store's uniqueness constraint is
	// the authority under races.
	if _, err := s.users.FindByEmail(ctx, u.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if _, err := s.users.FindByUsername(ctx, u.Username); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id domain.UserID) (*User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// Update carries optional field changes; nil means "leave unchanged".
type Update struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (s *Service) Update(ctx context.Context, id domain.UserID, upd Update) (*User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if other, err := s.users.FindByEmail(ctx, email); err == nil && other.ID != id {
			return nil, dErrors.New(dErrors.CodeConflict, "email already taken")
		}
		u.Email = email
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if other, err := s.users.FindByUsername(ctx, username); err == nil && other.ID != id {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		u.Username = username
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or username already taken")
		}
		return nil, translate(err)
	}
	return u, nil
}

// SetLive switches the user's live profile. The target profile must exist
// and belong to the user.
func (s *Service) SetLive(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error {
	owner, err := s.profiles.ProfileOwner(ctx, profileID)
	if err != nil {
		return translate(err)
	}
	if owner != id {
		return dErrors.New(dErrors.CodeForbidden, "profile belongs to another user")
	}
	if err := s.users.SetLive(ctx, id, profileID); err != nil {
		return translate(err)
	}
	return nil
}

// MemberIDs lists the IDs of every user attached to the team.
func (s *Service) MemberIDs(ctx context.Context, teamID domain.TeamID) ([]domain.UserID, error) {
	members, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, translate(err)
	}
	ids := make([]domain.UserID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids, nil
}

// TeamOf reports the user's current team; nil when unaffiliated.
func (s *Service) TeamOf(ctx context.Context, id domain.UserID) (domain.TeamID, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.TeamID{}, translate(err)
	}
	return u.Team, nil
}

// Attach puts the user on a team; Detach removes them and clears the lock.
func (s *Service) Attach(ctx context.Context, id domain.UserID, teamID domain.TeamID) error {
	if err := s.users.SetTeam(ctx, id, teamID); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Service) Detach(ctx context.Context, id domain.UserID) error {
	if err := s.users.SetTeam(ctx, id, domain.TeamID{}); err != nil {
		return translate(err)
	}
	return nil
}

// CreateMember registers an account on behalf of a team admin and returns
// the new ID.
func (s *Service) CreateMember(ctx context.Context, username, email string) (domain.UserID, error) {
	u, err := s.Create(ctx, Input{Username: username, Email: email})
	if err != nil {
		return domain.UserID{}, err
	}
	return u.ID, nil
}

func (s *Service) Delete(ctx context.Context, id domain.UserID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		// Already translated by a collaborating service.
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting user record")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
	}
}
