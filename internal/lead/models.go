package lead

import (
	"time"

	"cardlink/pkg/domain"
)

// Lead is one captured connection: either a toggle against another user's
// profile, or a manually entered contact with no profile behind it.
//
// Invariants:
//   - At most one lead per (User, Profile) pair when Profile is set
//   - Manual contacts (nil Profile) are exempt from the uniqueness rule and
//     from reciprocity
type Lead struct {
	ID        domain.LeadID    `json:"id"`
	User      domain.UserID    `json:"user"`
	Profile   domain.ProfileID `json:"profile,omitzero"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	JobTitle  string           `json:"jobTitle"`
	Company   string           `json:"company"`
	Notes     string           `json:"notes"`
	Location  string           `json:"location"`
	Website   string           `json:"website"`
	Image     string           `json:"image"`
	Cover     string           `json:"cover"`
	Logo      string           `json:"logo"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Manual reports whether the lead is a profile-less contact.
func (l *Lead) Manual() bool { return l.Profile.IsNil() }
