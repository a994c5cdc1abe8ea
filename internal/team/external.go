package team

import (
	"context"
	"log/slog"

	"cardlink/pkg/domain"
)

// NopEntitlements treats every user as subscribed. Stands in until a billing
// collaborator is wired.
type NopEntitlements struct{}

func (NopEntitlements) ActiveSubscription(context.Context, domain.UserID) error { return nil }

// LogInviter records invitations instead of delivering them. Stands in until
// an email collaborator is wired.
type LogInviter struct {
	Logger *slog.Logger
}

func (i LogInviter) Invite(ctx context.Context, email string, teamID domain.TeamID) error {
	i.Logger.InfoContext(ctx, "team invitation", "team_id", teamID, "email", email)
	return nil
}
