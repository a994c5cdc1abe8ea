package user

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists users. Implementations return sentinel errors
// (sentinel.ErrNotFound, sentinel.ErrConflict) which the service translates.
type Store interface {
	// Create inserts a new user. Returns sentinel.ErrConflict when the
	// username or email is already taken.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id domain.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Update rewrites mutable fields. Uniqueness violations surface as
	// sentinel.ErrConflict.
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id domain.UserID) error

	ListByTeam(ctx context.Context, teamID domain.TeamID) ([]*User, error)
	// SetTeam attaches the user to a team; a nil teamID detaches and clears
	// the lock flag.
	SetTeam(ctx context.Context, id domain.UserID, teamID domain.TeamID) error
	// SetLive switches the user's live profile.
	SetLive(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error

	// AppendLead and RemoveLead maintain the ordered leads set. Appending an
	// ID that is already present is a no-op; so is removing an absent one.
	AppendLead(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error
	RemoveLead(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error
}
