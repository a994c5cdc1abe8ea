// Package events publishes domain events to the platform event stream.
//
// Publishing is fail-open: a lost event must never fail the business
// operation that raised it. Consumers (analytics, notification fan-out) are
// external collaborators.
package events

import (
	"context"
	"time"
)

// Type names a domain event.
type Type string

const (
	TypeProfileViewed Type = "profile_viewed"
	TypeLeadCreated   Type = "lead_created"
	TypeLeadRemoved   Type = "lead_removed"
	TypeTeamCreated   Type = "team_created"
	TypeTeamDeleted   Type = "team_deleted"
	TypeTagActivated  Type = "tag_activated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	ProfileID string    `json:"profile_id,omitempty"`
	TeamID    string    `json:"team_id,omitempty"`
	TagID     string    `json:"tag_id,omitempty"`
	LeadID    string    `json:"lead_id,omitempty"`
	ViaTag    bool      `json:"via_tag,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event)
	Close() error
}

// Nop discards all events. Used in tests and when no brokers are configured.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}
func (Nop) Close() error                { return nil }
