package user

import (
	"strings"
	"time"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
)

// Role is the platform-level role. Platform admins control every resource;
// team authority is modeled on the team, not here.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account holder.
//
// Invariants:
//   - Username and Email are unique across the platform (store-enforced)
//   - Live references the single profile the user currently presents; it is
//     not an ownership edge (profiles point back via their own user field)
//   - Team is nil unless the user belongs to a team; at most one team at a
//     time
//   - Leads is the ordered set of profile IDs the user has connected to,
//     maintained by the connection ledger
type User struct {
	ID        domain.UserID      `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Role      Role               `json:"role"`
	Live      domain.ProfileID   `json:"live,omitzero"`
	Team      domain.TeamID      `json:"team,omitzero"`
	Locked    bool               `json:"locked"`
	Leads     []domain.ProfileID `json:"leads"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func New(id domain.UserID, username, email string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email must be a valid address")
	}
	return &User{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) InTeam() bool { return !u.Team.IsNil() }

func (u *User) IsPlatformAdmin() bool { return u.Role == RoleAdmin }

// HasLead reports whether profileID is in the user's leads set.
func (u *User) HasLead(profileID domain.ProfileID) bool {
	for _, id := range u.Leads {
		if id == profileID {
			return true
		}
	}
	return false
}
