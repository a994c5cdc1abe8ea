package lead

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists leads. Implementations return sentinel errors which the
// service translates.
type Store interface {
	// CreateIfAbsent inserts the lead unless a lead for the same
	// (user, profile) pair already exists, in which case it returns
	// sentinel.ErrConflict without writing. Manual contacts (nil profile)
	// always insert.
	CreateIfAbsent(ctx context.Context, l *Lead) error
	FindByID(ctx context.Context, id domain.LeadID) (*Lead, error)
	FindByUserAndProfile(ctx context.Context, userID domain.UserID, profileID domain.ProfileID) (*Lead, error)
	Update(ctx context.Context, l *Lead) error
	Delete(ctx context.Context, id domain.LeadID) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]*Lead, error)
	// DeleteByProfile removes every lead pointing at the profile. Deleting
	// zero rows is not an error; profile deletion cascades through here.
	DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error
}
