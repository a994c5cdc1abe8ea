package profile

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists profiles. Implementations return sentinel errors which the
// service translates.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, id domain.ProfileID) (*Profile, error)
	// Update rewrites display fields only. Views and Taps are never written
	// through Update; AddEngagement owns them.
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id domain.ProfileID) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]*Profile, error)
	// AddEngagement bumps the counters in a single atomic statement. Zero
	// deltas are allowed.
	AddEngagement(ctx context.Context, id domain.ProfileID, views, taps int64) error
}
