// Package domain holds the typed identifiers shared by every feature package.
//
// Entities reference each other by these IDs only, never by embedded
// structs, so the ownership graph stays acyclic and serializable.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies a platform user.
type UserID uuid.UUID

// ProfileID identifies a card profile (personal or team shared).
type ProfileID uuid.UUID

// TeamID identifies a team.
type TeamID uuid.UUID

// TagID identifies a physical or virtual tag.
type TagID uuid.UUID

// LeadID identifies a captured connection.
type LeadID uuid.UUID

// LinkID identifies a profile link.
type LinkID uuid.UUID

// ProductID identifies a profile product.
type ProductID uuid.UUID

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewProfileID() ProfileID { return ProfileID(uuid.New()) }
func NewTeamID() TeamID       { return TeamID(uuid.New()) }
func NewTagID() TagID         { return TagID(uuid.New()) }
func NewLeadID() LeadID       { return LeadID(uuid.New()) }
func NewLinkID() LinkID       { return LinkID(uuid.New()) }
func NewProductID() ProductID { return ProductID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ProfileID) String() string { return uuid.UUID(id).String() }
func (id TeamID) String() string    { return uuid.UUID(id).String() }
func (id TagID) String() string     { return uuid.UUID(id).String() }
func (id LeadID) String() string    { return uuid.UUID(id).String() }
func (id LinkID) String() string    { return uuid.UUID(id).String() }
func (id ProductID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TagID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id LeadID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id LinkID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)    { return marshalID(uuid.UUID(id)) }
func (id ProfileID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }
func (id TeamID) MarshalText() ([]byte, error)    { return marshalID(uuid.UUID(id)) }
func (id TagID) MarshalText() ([]byte, error)     { return marshalID(uuid.UUID(id)) }
func (id LeadID) MarshalText() ([]byte, error)    { return marshalID(uuid.UUID(id)) }
func (id LinkID) MarshalText() ([]byte, error)    { return marshalID(uuid.UUID(id)) }
func (id ProductID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }

func (id *UserID) UnmarshalText(b []byte) error    { return unmarshalID((*uuid.UUID)(id), b) }
func (id *ProfileID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }
func (id *TeamID) UnmarshalText(b []byte) error    { return unmarshalID((*uuid.UUID)(id), b) }
func (id *TagID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(id), b) }
func (id *LeadID) UnmarshalText(b []byte) error    { return unmarshalID((*uuid.UUID)(id), b) }
func (id *LinkID) UnmarshalText(b []byte) error    { return unmarshalID((*uuid.UUID)(id), b) }
func (id *ProductID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

// ParseUserID constructs a UserID from external input. Use at trust
// boundaries; direct casting bypasses validation.
func ParseUserID(s string) (UserID, error) {
	u, err := parseID(s)
	return UserID(u), err
}

func ParseProfileID(s string) (ProfileID, error) {
	u, err := parseID(s)
	return ProfileID(u), err
}

func ParseTeamID(s string) (TeamID, error) {
	u, err := parseID(s)
	return TeamID(u), err
}

func ParseTagID(s string) (TagID, error) {
	u, err := parseID(s)
	return TagID(u), err
}

func ParseLeadID(s string) (LeadID, error) {
	u, err := parseID(s)
	return LeadID(u), err
}

func ParseLinkID(s string) (LinkID, error) {
	u, err := parseID(s)
	return LinkID(u), err
}

func ParseProductID(s string) (ProductID, error) {
	u, err := parseID(s)
	return ProductID(u), err
}

func parseID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil id")
	}
	return u, nil
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := parseID(string(b))
	if err != nil {
		return err
	}
	*dst = u
	return nil
}
