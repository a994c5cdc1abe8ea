package team

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"cardlink/internal/platform/events"
	"cardlink/internal/platform/metrics"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/platform/tx"
	"cardlink/pkg/requestcontext"
)

// Directory is the slice of the user layer the team service needs, kept to
// primitive IDs so this package imports no feature package.
type Directory interface {
	MemberIDs(ctx context.Context, teamID domain.TeamID) ([]domain.UserID, error)
	TeamOf(ctx context.Context, userID domain.UserID) (domain.TeamID, error)
	Attach(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error
	Detach(ctx context.Context, userID domain.UserID) error
}

// MemberFactory registers a fresh account for direct team provisioning.
type MemberFactory interface {
	CreateMember(ctx context.Context, username, email string) (domain.UserID, error)
}

// ProfileFactory provisions the team's shared profile; ProfileDeleter
// cascade-deletes it. The profile service implements both.
type ProfileFactory interface {
	CreateShared(ctx context.Context) (domain.ProfileID, error)
}

type ProfileDeleter interface {
	Delete(ctx context.Context, id domain.ProfileID) error
}

// Entitlements gates team creation on an active subscription. Billing is an
// external system; only the yes/no answer crosses this boundary.
type Entitlements interface {
	ActiveSubscription(ctx context.Context, userID domain.UserID) error
}

// Inviter delivers team invitations. Delivery is external; failures are
// logged, never returned to the caller.
type Inviter interface {
	Invite(ctx context.Context, email string, teamID domain.TeamID) error
}

// Service owns the team lifecycle and membership flows.
type Service struct {
	teams        Store
	directory    Directory
	members      MemberFactory
	profiles     ProfileFactory
	purge        ProfileDeleter
	entitlements Entitlements
	inviter      Inviter
	runner       tx.Runner
	events       events.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type Deps struct {
	Teams        Store
	Directory    Directory
	Members      MemberFactory
	Profiles     ProfileFactory
	Purge        ProfileDeleter
	Entitlements Entitlements
	Inviter      Inviter
	Runner       tx.Runner
	Events       events.Publisher
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		teams:        d.Teams,
		directory:    d.Directory,
		members:      d.Members,
		profiles:     d.Profiles,
		purge:        d.Purge,
		entitlements: d.Entitlements,
		inviter:      d.Inviter,
		runner:       d.Runner,
		events:       d.Events,
		metrics:      d.Metrics,
		logger:       d.Logger,
	}
}

// Create provisions a team for the authenticated user: the team row, its
// shared profile, and the creator's membership commit together or not at all.
// Requires an active subscription and no current team membership.
func (s *Service) Create(ctx context.Context) (*Team, error) {
	principal := requestcontext.UserID(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	if err := s.entitlements.ActiveSubscription(ctx, principal); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePreconditionFailed, "active subscription required")
	}
	if teamID, err := s.directory.TeamOf(ctx, principal); err != nil {
		return nil, translate(err)
	} else if !teamID.IsNil() {
		return nil, dErrors.New(dErrors.CodeConflict, "already in a team")
	}

	var created *Team
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		sharedID, err := s.profiles.CreateShared(ctx)
		if err != nil {
			return err
		}
		t := New(domain.NewTeamID(), principal, sharedID, requestcontext.Now(ctx))
		if err := s.teams.Create(ctx, t); err != nil {
			return translate(err)
		}
		if err := s.directory.Attach(ctx, principal, t.ID); err != nil {
			return translate(err)
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TeamsCreated.Inc()
	s.events.Emit(ctx, events.Event{
		Type:      events.TypeTeamCreated,
		Timestamp: requestcontext.Now(ctx),
		UserID:    principal.String(),
		TeamID:    created.ID.String(),
		ProfileID: created.Profile.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return created, nil
}

func (s *Service) Get(ctx context.Context, id domain.TeamID) (*Team, error) {
	t, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

// SharedProfileID reports the team's shared profile.
func (s *Service) SharedProfileID(ctx context.Context, id domain.TeamID) (domain.ProfileID, error) {
	t, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return domain.ProfileID{}, translate(err)
	}
	return t.Profile, nil
}

// Delete dissolves the team: every member is detached and unlocked, the team
// row is removed, and the shared profile is cascade-deleted last.
func (s *Service) Delete(ctx context.Context, id domain.TeamID) error {
	t, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}

	memberIDs, err := s.directory.MemberIDs(ctx, id)
	if err != nil {
		return translate(err)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, memberID := range memberIDs {
		g.Go(func() error { return s.directory.Detach(gctx, memberID) })
	}
	if err := g.Wait(); err != nil {
		return translate(err)
	}

	if err := s.teams.Delete(ctx, id); err != nil {
		return translate(err)
	}
	if err := s.purge.Delete(ctx, t.Profile); err != nil {
		// The team is gone; an orphaned shared profile is logged, not fatal.
		s.logger.ErrorContext(ctx, "shared profile cleanup failed", "team_id", id, "profile_id", t.Profile, "error", err)
	}

	s.events.Emit(ctx, events.Event{
		Type:      events.TypeTeamDeleted,
		Timestamp: requestcontext.Now(ctx),
		UserID:    requestcontext.UserID(ctx).String(),
		TeamID:    id.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// Invite fans invitations out to the given addresses. Delivery failures are
// logged per address and do not fail the call.
func (s *Service) Invite(ctx context.Context, id domain.TeamID, emails []string) error {
	if _, err := s.teams.FindByID(ctx, id); err != nil {
		return translate(err)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, email := range emails {
		g.Go(func() error {
			if err := s.inviter.Invite(gctx, email, id); err != nil {
				s.logger.WarnContext(gctx, "invite delivery failed", "team_id", id, "email", email, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Join attaches the authenticated user to the team. Users belong to at most
// one team.
func (s *Service) Join(ctx context.Context, id domain.TeamID) error {
	principal := requestcontext.UserID(ctx)
	if principal.IsNil() {
		return dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	if _, err := s.teams.FindByID(ctx, id); err != nil {
		return translate(err)
	}
	if teamID, err := s.directory.TeamOf(ctx, principal); err != nil {
		return translate(err)
	} else if !teamID.IsNil() {
		return dErrors.New(dErrors.CodeConflict, "already in a team")
	}
	if err := s.directory.Attach(ctx, principal, id); err != nil {
		return translate(err)
	}
	return nil
}

// Leave detaches the authenticated user from their team. The super admin
// cannot leave; the team must be deleted instead.
func (s *Service) Leave(ctx context.Context) error {
	principal := requestcontext.UserID(ctx)
	if principal.IsNil() {
		return dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	teamID, err := s.directory.TeamOf(ctx, principal)
	if err != nil {
		return translate(err)
	}
	if teamID.IsNil() {
		return dErrors.New(dErrors.CodeNotFound, "not in a team")
	}
	t, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return translate(err)
	}
	if t.SuperAdmin == principal {
		return dErrors.New(dErrors.CodePreconditionFailed, "super admin cannot leave; delete the team")
	}
	if err := s.directory.Detach(ctx, principal); err != nil {
		return translate(err)
	}
	return s.dropAdmin(ctx, t, principal)
}

// RemoveMember detaches userID from the team. The user must actually belong
// to this team, and the super admin cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, id domain.TeamID, userID domain.UserID) error {
	t, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if t.SuperAdmin == userID {
		return dErrors.New(dErrors.CodePreconditionFailed, "super admin cannot be removed")
	}
	memberTeam, err := s.directory.TeamOf(ctx, userID)
	if err != nil {
		return translate(err)
	}
	if memberTeam != id {
		return dErrors.New(dErrors.CodeForbidden, "user is not a member of this team")
	}
	if err := s.directory.Detach(ctx, userID); err != nil {
		return translate(err)
	}
	return s.dropAdmin(ctx, t, userID)
}

// CreateMember registers a fresh account and attaches it to the team in one
// step.
func (s *Service) CreateMember(ctx context.Context, id domain.TeamID, username, email string) (domain.UserID, error) {
	if _, err := s.teams.FindByID(ctx, id); err != nil {
		return domain.UserID{}, translate(err)
	}
	var userID domain.UserID
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if userID, err = s.members.CreateMember(ctx, username, email); err != nil {
			return err
		}
		return s.directory.Attach(ctx, userID, id)
	})
	if err != nil {
		return domain.UserID{}, translate(err)
	}
	return userID, nil
}

func (s *Service) dropAdmin(ctx context.Context, t *Team, userID domain.UserID) error {
	kept := t.Admins[:0]
	for _, adminID := range t.Admins {
		if adminID != userID {
			kept = append(kept, adminID)
		}
	}
	if len(kept) == len(t.Admins) {
		return nil
	}
	t.Admins = kept
	if err := s.teams.Update(ctx, t); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "team not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting team record")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "team store failure")
	}
}
