package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/requestcontext"
)

// stubOwners answers profile ownership from a fixed map.
type stubOwners struct {
	owners map[domain.ProfileID]domain.UserID
}

func (s *stubOwners) ProfileOwner(_ context.Context, id domain.ProfileID) (domain.UserID, error) {
	owner, ok := s.owners[id]
	if !ok {
		return domain.UserID{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return owner, nil
}

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	store   *InMemory
	owners  *stubOwners
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = NewInMemory()
	s.owners = &stubOwners{owners: map[domain.ProfileID]domain.UserID{}}
	s.service = NewService(s.store, s.owners)
}

func (s *UserServiceSuite) create(username, email string) *User {
	u, err := s.service.Create(s.ctx, Input{Username: username, Email: email})
	s.Require().NoError(err)
	return u
}

func (s *UserServiceSuite) TestCreate() {
	s.Run("normalizes and stores", func() {
		u := s.create("  ada  ", "Ada@Example.COM")
		s.Equal("ada", u.Username)
		s.Equal("ada@example.com", u.Email)
		s.Equal(RoleUser, u.Role)
		s.Equal(s.now, u.CreatedAt)
	})

	s.Run("rejects duplicate email", func() {
		_, err := s.service.Create(s.ctx, Input{Username: "other", Email: "ada@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects duplicate username", func() {
		_, err := s.service.Create(s.ctx, Input{Username: "ada", Email: "fresh@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects malformed input", func() {
		_, err := s.service.Create(s.ctx, Input{Username: "", Email: "a@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = s.service.Create(s.ctx, Input{Username: "x", Email: "not-an-email"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *UserServiceSuite) TestUpdate() {
	ada := s.create("ada", "ada@example.com")
	s.create("grace", "grace@example.com")

	s.Run("changes fields", func() {
		username := "ada2"
		u, err := s.service.Update(s.ctx, ada.ID, Update{Username: &username})
		s.NoError(err)
		s.Equal("ada2", u.Username)
	})

	s.Run("rejects a taken email", func() {
		email := "grace@example.com"
		_, err := s.service.Update(s.ctx, ada.ID, Update{Email: &email})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("keeping your own email is fine", func() {
		email := "ada@example.com"
		_, err := s.service.Update(s.ctx, ada.ID, Update{Email: &email})
		s.NoError(err)
	})

	s.Run("missing user is not found", func() {
		name := "ghost"
		_, err := s.service.Update(s.ctx, domain.NewUserID(), Update{Username: &name})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *UserServiceSuite) TestSetLive() {
	ada := s.create("ada", "ada@example.com")
	grace := s.create("grace", "grace@example.com")
	profileID := domain.NewProfileID()
	s.owners.owners[profileID] = ada.ID

	s.Run("owner switches live profile", func() {
		s.NoError(s.service.SetLive(s.ctx, ada.ID, profileID))
		u, err := s.store.FindByID(s.ctx, ada.ID)
		s.Require().NoError(err)
		s.Equal(profileID, u.Live)
	})

	s.Run("someone else's profile is forbidden", func() {
		err := s.service.SetLive(s.ctx, grace.ID, profileID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown profile is not found", func() {
		err := s.service.SetLive(s.ctx, ada.ID, domain.NewProfileID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *UserServiceSuite) TestTeamDirectory() {
	ada := s.create("ada", "ada@example.com")
	grace := s.create("grace", "grace@example.com")
	s.create("solo", "solo@example.com")
	teamID := domain.NewTeamID()

	s.NoError(s.service.Attach(s.ctx, ada.ID, teamID))
	s.NoError(s.service.Attach(s.ctx, grace.ID, teamID))

	got, err := s.service.TeamOf(s.ctx, ada.ID)
	s.NoError(err)
	s.Equal(teamID, got)

	ids, err := s.service.MemberIDs(s.ctx, teamID)
	s.NoError(err)
	s.ElementsMatch([]domain.UserID{ada.ID, grace.ID}, ids)

	s.NoError(s.service.Detach(s.ctx, grace.ID))
	got, err = s.service.TeamOf(s.ctx, grace.ID)
	s.NoError(err)
	s.True(got.IsNil())

	ids, err = s.service.MemberIDs(s.ctx, teamID)
	s.NoError(err)
	s.ElementsMatch([]domain.UserID{ada.ID}, ids)
}

func (s *UserServiceSuite) TestLeadsSet() {
	ada := s.create("ada", "ada@example.com")
	first := domain.NewProfileID()
	second := domain.NewProfileID()

	s.NoError(s.store.AppendLead(s.ctx, ada.ID, first))
	s.NoError(s.store.AppendLead(s.ctx, ada.ID, second))
	// Appending an existing entry is a no-op.
	s.NoError(s.store.AppendLead(s.ctx, ada.ID, first))

	u, err := s.store.FindByID(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Equal([]domain.ProfileID{first, second}, u.Leads)

	s.NoError(s.store.RemoveLead(s.ctx, ada.ID, first))
	u, err = s.store.FindByID(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Equal([]domain.ProfileID{second}, u.Leads)
	s.False(u.HasLead(first))
}
