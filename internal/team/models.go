package team

import (
	"time"

	"cardlink/pkg/domain"
)

// Team groups users under shared branding.
//
// Invariants:
//   - Every team has exactly one shared profile for its lifetime; it is
//     created with the team and deleted with it
//   - SuperAdmin is a member and cannot leave; deleting the team is the only
//     way out
type Team struct {
	ID         domain.TeamID    `json:"id"`
	SuperAdmin domain.UserID    `json:"superAdmin"`
	Admins     []domain.UserID  `json:"admins"`
	Profile    domain.ProfileID `json:"profile"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func New(id domain.TeamID, superAdmin domain.UserID, profile domain.ProfileID, now time.Time) *Team {
	return &Team{
		ID:         id,
		SuperAdmin: superAdmin,
		Profile:    profile,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsAdmin reports whether userID holds team authority: the super admin or
// any listed admin.
func (t *Team) IsAdmin(userID domain.UserID) bool {
	if t.SuperAdmin == userID {
		return true
	}
	for _, id := range t.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
