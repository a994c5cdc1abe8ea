package tag

import (
	"context"

	"cardlink/pkg/domain"
)

// Store persists tags. Implementations return sentinel errors which the
// service translates.
type Store interface {
	// Create inserts a new tag. Returns sentinel.ErrConflict when the
	// customId is already taken.
	Create(ctx context.Context, t *Tag) error
	FindByID(ctx context.Context, id domain.TagID) (*Tag, error)
	FindByCustomID(ctx context.Context, customID string) (*Tag, error)
	// BindUser attaches the tag to a user. Returns sentinel.ErrInvalidState
	// when the tag is already bound; binding is first-wins.
	BindUser(ctx context.Context, id domain.TagID, userID domain.UserID) error
	// UnbindUser releases the tag.
	UnbindUser(ctx context.Context, id domain.TagID) error
	Delete(ctx context.Context, id domain.TagID) error
}
