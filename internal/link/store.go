package link

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists links. Implementations return sentinel errors which the
// service translates.
type Store interface {
	Create(ctx context.Context, l *Link) error
	FindByID(ctx context.Context, id domain.LinkID) (*Link, error)
	Update(ctx context.Context, l *Link) error
	Delete(ctx context.Context, id domain.LinkID) error
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*Link, error)
	// DeleteByProfile removes every link on the profile. Deleting zero rows is
	// not an error; profile deletion cascades through here.
	DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error
}
