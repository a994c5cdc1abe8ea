package product

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists products. Implementations return sentinel errors which the
// service translates.
type Store interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id domain.ProductID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id domain.ProductID) error
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*Product, error)
	// DeleteByProfile removes every product on the profile. Deleting zero rows
	// is not an error.
	DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error
}
