package link

import (
	"strings"
	"time"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
)

// Link is a single entry on a profile's card: a social handle, website, or
// contact field. Value holds the handle or URL; Platform names the service it
// belongs to.
type Link struct {
	ID        domain.LinkID    `json:"id"`
	Profile   domain.ProfileID `json:"profile"`
	Platform  string           `json:"platform"`
	Title     string           `json:"title"`
	Value     string           `json:"value"`
	IsContact bool             `json:"isContact"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func New(id domain.LinkID, profileID domain.ProfileID, platform, title, value string, now time.Time) (*Link, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "link value cannot be empty")
	}
	return &Link{
		ID:        id,
		Profile:   profileID,
		Platform:  strings.TrimSpace(platform),
		Title:     strings.TrimSpace(title),
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
