package tag

import (
	"strings"
	"time"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
)

// Tag is a physical or virtual token that resolves to its bound user's live
// profile. Unbound until activated.
type Tag struct {
	ID       domain.TagID  `json:"id"`
	CustomID string        `json:"customId"`
	User     domain.UserID `json:"user,omitzero"`
	// SecretHash is the bcrypt hash of the claim code printed with the tag.
	// Never serialized.
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func New(id domain.TagID, customID string, now time.Time) (*Tag, error) {
	customID = strings.TrimSpace(customID)
	if customID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tag customId cannot be empty")
	}
	return &Tag{
		ID:        id,
		CustomID:  customID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Bound reports whether the tag has been activated by a user.
func (t *Tag) Bound() bool { return !t.User.IsNil() }
