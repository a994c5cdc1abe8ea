package team

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"cardlink/internal/link"
	"cardlink/internal/platform/events"
	"cardlink/internal/platform/metrics"
	"cardlink/internal/product"
	"cardlink/internal/profile"
	"cardlink/internal/tag"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/platform/tx"
	"cardlink/pkg/requestcontext"
)

// deniedEntitlements simulates a lapsed subscription.
type deniedEntitlements struct{}

func (deniedEntitlements) ActiveSubscription(context.Context, domain.UserID) error {
	return errors.New("no active subscription")
}

type TeamServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	teams    *InMemory
	users    *user.InMemory
	profiles *profile.InMemory
	userSvc  *user.Service
	service  *Service
}

func TestTeamServiceSuite(t *testing.T) {
	suite.Run(t, new(TeamServiceSuite))
}

func (s *TeamServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.teams = NewInMemory()
	s.users = user.NewInMemory()
	s.profiles = profile.NewInMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	profileSvc := profile.NewService(profile.Deps{
		Profiles: s.profiles,
		Users:    s.users,
		Tags:     tag.NewInMemory(),
		Links:    link.NewInMemory(),
		Products: product.NewInMemory(),
		Events:   events.Nop{},
		Metrics:  metrics.NewWith(prometheus.NewRegistry()),
		Logger:   logger,
	})
	s.userSvc = user.NewService(s.users, profileSvc)

	s.service = NewService(Deps{
		Teams:        s.teams,
		Directory:    s.userSvc,
		Members:      s.userSvc,
		Profiles:     profileSvc,
		Purge:        profileSvc,
		Entitlements: NopEntitlements{},
		Inviter:      LogInviter{Logger: logger},
		Runner:       tx.NopRunner{},
		Events:       events.Nop{},
		Metrics:      metrics.NewWith(prometheus.NewRegistry()),
		Logger:       logger,
	})
}

func (s *TeamServiceSuite) newUser(username string) *user.User {
	u, err := user.New(domain.NewUserID(), username, username+"@example.com", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *TeamServiceSuite) asUser(u *user.User) context.Context {
	return requestcontext.WithUserID(s.ctx, u.ID)
}

func (s *TeamServiceSuite) createTeam(creator *user.User) *Team {
	t, err := s.service.Create(s.asUser(creator))
	s.Require().NoError(err)
	return t
}

func (s *TeamServiceSuite) TestCreate() {
	s.Run("provisions team, shared profile, and membership", func() {
		ada := s.newUser("ada")
		t := s.createTeam(ada)

		s.Equal(ada.ID, t.SuperAdmin)

		shared, err := s.profiles.FindByID(s.ctx, t.Profile)
		s.Require().NoError(err)
		s.True(shared.IsShared())

		u, err := s.users.FindByID(s.ctx, ada.ID)
		s.Require().NoError(err)
		s.Equal(t.ID, u.Team)
	})

	s.Run("requires an active subscription", func() {
		lapsed := NewService(Deps{
			Teams:        s.teams,
			Directory:    s.userSvc,
			Entitlements: deniedEntitlements{},
			Runner:       tx.NopRunner{},
			Events:       events.Nop{},
			Metrics:      metrics.NewWith(prometheus.NewRegistry()),
			Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		bob := s.newUser("bob")
		_, err := lapsed.Create(s.asUser(bob))
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("one team per user", func() {
		carol := s.newUser("carol")
		s.createTeam(carol)
		_, err := s.service.Create(s.asUser(carol))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("anonymous creation is forbidden", func() {
		_, err := s.service.Create(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *TeamServiceSuite) TestDelete() {
	ada := s.newUser("ada")
	grace := s.newUser("grace")
	t := s.createTeam(ada)
	s.Require().NoError(s.service.Join(s.asUser(grace), t.ID))

	s.Require().NoError(s.service.Delete(s.asUser(ada), t.ID))

	_, err := s.teams.FindByID(s.ctx, t.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.profiles.FindByID(s.ctx, t.Profile)
	s.ErrorIs(err, sentinel.ErrNotFound)

	for _, u := range []*user.User{ada, grace} {
		stored, err := s.users.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.True(stored.Team.IsNil())
	}
}

func (s *TeamServiceSuite) TestJoinAndLeave() {
	ada := s.newUser("ada")
	t := s.createTeam(ada)

	s.Run("join attaches the member", func() {
		grace := s.newUser("grace")
		s.NoError(s.service.Join(s.asUser(grace), t.ID))

		stored, err := s.users.FindByID(s.ctx, grace.ID)
		s.Require().NoError(err)
		s.Equal(t.ID, stored.Team)
	})

	s.Run("a member of another team cannot join", func() {
		bob := s.newUser("bob")
		s.createTeam(bob)
		err := s.service.Join(s.asUser(bob), t.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("leave detaches and prunes admin rights", func() {
		helen := s.newUser("helen")
		s.Require().NoError(s.service.Join(s.asUser(helen), t.ID))
		stored, err := s.teams.FindByID(s.ctx, t.ID)
		s.Require().NoError(err)
		stored.Admins = append(stored.Admins, helen.ID)
		s.Require().NoError(s.teams.Update(s.ctx, stored))

		s.NoError(s.service.Leave(s.asUser(helen)))

		u, err := s.users.FindByID(s.ctx, helen.ID)
		s.Require().NoError(err)
		s.True(u.Team.IsNil())
		after, err := s.teams.FindByID(s.ctx, t.ID)
		s.Require().NoError(err)
		s.False(after.IsAdmin(helen.ID))
	})

	s.Run("super admin cannot leave", func() {
		err := s.service.Leave(s.asUser(ada))
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("leaving without a team is not found", func() {
		loner := s.newUser("loner")
		err := s.service.Leave(s.asUser(loner))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *TeamServiceSuite) TestRemoveMember() {
	ada := s.newUser("ada")
	t := s.createTeam(ada)
	grace := s.newUser("grace")
	s.Require().NoError(s.service.Join(s.asUser(grace), t.ID))

	s.Run("super admin cannot be removed", func() {
		err := s.service.RemoveMember(s.asUser(ada), t.ID, ada.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("member of another team is rejected", func() {
		bob := s.newUser("bob")
		other := s.createTeam(bob)
		err := s.service.RemoveMember(s.asUser(ada), t.ID, bob.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		_ = other
	})

	s.Run("removal detaches the member", func() {
		s.NoError(s.service.RemoveMember(s.asUser(ada), t.ID, grace.ID))
		stored, err := s.users.FindByID(s.ctx, grace.ID)
		s.Require().NoError(err)
		s.True(stored.Team.IsNil())
	})
}

func (s *TeamServiceSuite) TestCreateMember() {
	ada := s.newUser("ada")
	t := s.createTeam(ada)

	id, err := s.service.CreateMember(s.asUser(ada), t.ID, "newhire", "newhire@example.com")
	s.Require().NoError(err)

	u, err := s.users.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("newhire", u.Username)
	s.Equal(t.ID, u.Team)
}

func (s *TeamServiceSuite) TestSharedProfileID() {
	ada := s.newUser("ada")
	t := s.createTeam(ada)

	id, err := s.service.SharedProfileID(s.ctx, t.ID)
	s.NoError(err)
	s.Equal(t.Profile, id)

	_, err = s.service.SharedProfileID(s.ctx, domain.NewTeamID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
