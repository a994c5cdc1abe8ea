package team

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists teams. Implementations return sentinel errors which the
// service translates.
type Store interface {
	Create(ctx context.Context, t *Team) error
	FindByID(ctx context.Context, id domain.TeamID) (*Team, error)
	// Update rewrites the admins list.
	Update(ctx context.Context, t *Team) error
	Delete(ctx context.Context, id domain.TeamID) error
}
