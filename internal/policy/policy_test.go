package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardlink/internal/team"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
)

type AuthorizerSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	users *user.InMemory
	teams *team.InMemory
	authz *Authorizer
}

func TestAuthorizerSuite(t *testing.T) {
	suite.Run(t, new(AuthorizerSuite))
}

func (s *AuthorizerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.users = user.NewInMemory()
	s.teams = team.NewInMemory()
	s.authz = NewAuthorizer(s.users, s.teams)
}

func (s *AuthorizerSuite) newUser(username string, role user.Role) *user.User {
	u, err := user.New(domain.NewUserID(), username, username+"@example.com", s.now)
	s.Require().NoError(err)
	u.Role = role
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *AuthorizerSuite) newTeam(superAdmin *user.User, members ...*user.User) *team.Team {
	t := team.New(domain.NewTeamID(), superAdmin.ID, domain.NewProfileID(), s.now)
	s.Require().NoError(s.teams.Create(s.ctx, t))
	s.Require().NoError(s.users.SetTeam(s.ctx, superAdmin.ID, t.ID))
	for _, m := range members {
		s.Require().NoError(s.users.SetTeam(s.ctx, m.ID, t.ID))
	}
	return t
}

func (s *AuthorizerSuite) TestIsController() {
	owner := s.newUser("owner", user.RoleUser)

	s.Run("anonymous controls nothing", func() {
		ok, err := s.authz.IsController(s.ctx, domain.UserID{}, owner.ID)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("unknown principal controls nothing", func() {
		ok, err := s.authz.IsController(s.ctx, domain.NewUserID(), owner.ID)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("platform admin controls everything", func() {
		admin := s.newUser("platform", user.RoleAdmin)
		ok, err := s.authz.IsController(s.ctx, admin.ID, owner.ID)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("owner controls their own resources", func() {
		ok, err := s.authz.IsController(s.ctx, owner.ID, owner.ID)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("stranger does not", func() {
		stranger := s.newUser("stranger", user.RoleUser)
		ok, err := s.authz.IsController(s.ctx, stranger.ID, owner.ID)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("ownerless resource answers false for non-admins", func() {
		ok, err := s.authz.IsController(s.ctx, owner.ID, domain.UserID{})
		s.NoError(err)
		s.False(ok)
	})
}

func (s *AuthorizerSuite) TestTeamChain() {
	super := s.newUser("super", user.RoleUser)
	admin := s.newUser("teamadmin", user.RoleUser)
	member := s.newUser("member", user.RoleUser)
	t := s.newTeam(super, admin, member)
	t.Admins = append(t.Admins, admin.ID)
	s.Require().NoError(s.teams.Update(s.ctx, t))

	s.Run("team admin controls a teammate", func() {
		ok, err := s.authz.IsController(s.ctx, admin.ID, member.ID)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("super admin controls a teammate", func() {
		ok, err := s.authz.IsController(s.ctx, super.ID, member.ID)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("plain member does not control a teammate", func() {
		ok, err := s.authz.IsController(s.ctx, member.ID, admin.ID)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("admin of one team has no reach into another", func() {
		otherSuper := s.newUser("othersuper", user.RoleUser)
		otherMember := s.newUser("othermember", user.RoleUser)
		s.newTeam(otherSuper, otherMember)

		ok, err := s.authz.IsController(s.ctx, admin.ID, otherMember.ID)
		s.NoError(err)
		s.False(ok)
	})
}

func (s *AuthorizerSuite) TestIsTeamController() {
	super := s.newUser("super", user.RoleUser)
	member := s.newUser("member", user.RoleUser)
	t := s.newTeam(super, member)

	s.Run("super admin controls the team", func() {
		ok, err := s.authz.IsTeamController(s.ctx, super.ID, t.ID)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("plain member does not", func() {
		ok, err := s.authz.IsTeamController(s.ctx, member.ID, t.ID)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("platform admin always does", func() {
		admin := s.newUser("platform", user.RoleAdmin)
		ok, err := s.authz.IsTeamController(s.ctx, admin.ID, t.ID)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("missing team answers false", func() {
		ok, err := s.authz.IsTeamController(s.ctx, super.ID, domain.NewTeamID())
		s.NoError(err)
		s.False(ok)
	})
}
