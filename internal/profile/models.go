package profile

import (
	"time"

	"cardlink/pkg/domain"
)

// Profile is a shareable card page.
//
// Invariants:
//   - User is nil exactly when the profile is a team's shared profile
//   - Views and Taps are monotonically non-decreasing; they change only
//     through Store.AddEngagement, never through Update
//   - A profile that is its owner's live profile cannot be deleted
type Profile struct {
	ID          domain.ProfileID `json:"id"`
	User        domain.UserID    `json:"user,omitzero"`
	Title       string           `json:"title"`
	Name        string           `json:"name"`
	Bio         string           `json:"bio"`
	ThemeColor  string           `json:"themeColor"`
	Location    string           `json:"location"`
	JobTitle    string           `json:"jobTitle"`
	Company     string           `json:"company"`
	Image       string           `json:"image"`
	Cover       string           `json:"cover"`
	Logo        string           `json:"logo"`
	Category    string           `json:"category"`
	Views       int64            `json:"views"`
	Taps        int64            `json:"taps"`
	LeadCapture bool             `json:"leadCapture"`
	DirectOn    bool             `json:"directOn"`
	Direct      domain.LinkID    `json:"direct,omitzero"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

const defaultTitle = "Personal"

// New builds a personal profile owned by userID. Shared team profiles are
// built with NewShared.
func New(id domain.ProfileID, userID domain.UserID, now time.Time) *Profile {
	return &Profile{
		ID:        id,
		User:      userID,
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewShared builds an ownerless profile for a team's shared branding.
func NewShared(id domain.ProfileID, now time.Time) *Profile {
	return &Profile{
		ID:        id,
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsShared reports whether the profile is a team's shared profile.
func (p *Profile) IsShared() bool { return p.User.IsNil() }

// OwnedBy reports whether principal owns this profile. Anonymous principals
// (nil ID) own nothing; a shared profile is owned by nobody.
func (p *Profile) OwnedBy(principal domain.UserID) bool {
	return !p.User.IsNil() && p.User == principal
}
