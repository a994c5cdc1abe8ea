package profile

import (
	"context"
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
	"cardlink/internal/tag"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// stubTeams maps teams to shared profiles without pulling in the team
// service.
type stubTeams struct {
	shared map[domain.TeamID]domain.ProfileID
}

func (s *stubTeams) SharedProfileID(_ context.Context, id domain.TeamID) (domain.ProfileID, error) {
	profileID, ok := s.shared[id]
	if !ok {
		return domain.ProfileID{}, sentinel.ErrNotFound
	}
	return profileID, nil
}

type ProfileServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	profiles *InMemory
	users    *user.InMemory
	tags     *tag.InMemory
	links    *link.InMemory
	products *product.InMemory
	teams    *stubTeams
	service  *Service
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}

func (s *ProfileServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.profiles = NewInMemory()
	s.users = user.NewInMemory()
	s.tags = tag.NewInMemory()
	s.links = link.NewInMemory()
	s.products = product.NewInMemory()
	s.teams = &stubTeams{shared: map[domain.TeamID]domain.ProfileID{}}

	s.service = NewService(Deps{
		Profiles:   s.profiles,
		Users:      s.users,
		Tags:       s.tags,
		Teams:      s.teams,
		Links:      s.links,
		Products:   s.products,
		Dependents: []Dependent{s.links, s.products},
		Events:     events.Nop{},
		Metrics:    metrics.NewWith(prometheus.NewRegistry()),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (s *ProfileServiceSuite) newUser(username string) *user.User {
	u, err := user.New(domain.NewUserID(), username, username+"@example.com", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *ProfileServiceSuite) newProfile(owner *user.User, live bool) *Profile {
	p := New(domain.NewProfileID(), owner.ID, s.now)
	s.Require().NoError(s.profiles.Create(s.ctx, p))
	if live {
		s.Require().NoError(s.users.SetLive(s.ctx, owner.ID, p.ID))
	}
	return p
}

func (s *ProfileServiceSuite) TestResolveLadder() {
	owner := s.newUser("ada")
	p := s.newProfile(owner, true)
	viewer := s.newUser("grace")

	s.Run("profile id resolves directly", func() {
		res, err := s.service.Resolve(s.ctx, p.ID.String(), viewer.ID)
		s.NoError(err)
		s.Equal(p.ID, res.Profile.ID)
		s.False(res.ViaTag)
	})

	s.Run("user id resolves to live profile", func() {
		res, err := s.service.Resolve(s.ctx, owner.ID.String(), viewer.ID)
		s.NoError(err)
		s.Equal(p.ID, res.Profile.ID)
	})

	s.Run("username resolves to live profile", func() {
		res, err := s.service.Resolve(s.ctx, "ada", viewer.ID)
		s.NoError(err)
		s.Equal(p.ID, res.Profile.ID)
	})

	s.Run("tag customId resolves through bound user", func() {
		t, err := tag.New(domain.NewTagID(), "TAG-001", s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.tags.Create(s.ctx, t))
		s.Require().NoError(s.tags.BindUser(s.ctx, t.ID, owner.ID))

		res, err := s.service.Resolve(s.ctx, "TAG-001", viewer.ID)
		s.NoError(err)
		s.Equal(p.ID, res.Profile.ID)
		s.True(res.ViaTag)
	})

	s.Run("unbound tag is not found", func() {
		t, err := tag.New(domain.NewTagID(), "TAG-UNBOUND", s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.tags.Create(s.ctx, t))

		_, err = s.service.Resolve(s.ctx, "TAG-UNBOUND", viewer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("user without live profile is not found", func() {
		bare := s.newUser("bare")
		_, err := s.service.Resolve(s.ctx, "bare", viewer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_ = bare
	})

	s.Run("unknown identifier is not found", func() {
		_, err := s.service.Resolve(s.ctx, "nobody-here", viewer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ProfileServiceSuite) TestResolveEngagement() {
	owner := s.newUser("ada")
	p := s.newProfile(owner, true)
	viewer := s.newUser("grace")

	s.Run("owner view does not count", func() {
		res, err := s.service.Resolve(s.ctx, p.ID.String(), owner.ID)
		s.NoError(err)
		s.EqualValues(0, res.Profile.Views)
	})

	s.Run("anonymous view counts", func() {
		res, err := s.service.Resolve(s.ctx, p.ID.String(), domain.UserID{})
		s.NoError(err)
		s.EqualValues(1, res.Profile.Views)
		s.EqualValues(0, res.Profile.Taps)
	})

	s.Run("other user view counts", func() {
		res, err := s.service.Resolve(s.ctx, p.ID.String(), viewer.ID)
		s.NoError(err)
		s.EqualValues(2, res.Profile.Views)
	})

	s.Run("tag resolution also counts a tap", func() {
		t, err := tag.New(domain.NewTagID(), "TAG-ENG", s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.tags.Create(s.ctx, t))
		s.Require().NoError(s.tags.BindUser(s.ctx, t.ID, owner.ID))

		res, err := s.service.Resolve(s.ctx, "TAG-ENG", viewer.ID)
		s.NoError(err)
		s.EqualValues(3, res.Profile.Views)
		s.EqualValues(1, res.Profile.Taps)
	})
}

func (s *ProfileServiceSuite) TestEffective() {
	teamID := domain.NewTeamID()
	owner := s.newUser("ada")
	s.Require().NoError(s.users.SetTeam(s.ctx, owner.ID, teamID))

	individual := New(domain.NewProfileID(), owner.ID, s.now)
	individual.Company = "Own Co"
	individual.ThemeColor = "#111111"
	individual.Name = "Ada"
	s.Require().NoError(s.profiles.Create(s.ctx, individual))

	shared := NewShared(domain.NewProfileID(), s.now)
	shared.Company = "Team Co"
	shared.Logo = "team-logo.png"
	s.Require().NoError(s.profiles.Create(s.ctx, shared))
	s.teams.shared[teamID] = shared.ID

	s.Run("non-empty team values win, empty ones do not", func() {
		eff, err := s.service.Effective(s.ctx, individual)
		s.NoError(err)
		s.Equal("Team Co", eff.Company)
		s.Equal("team-logo.png", eff.Logo)
		s.Equal("#111111", eff.ThemeColor)
		s.Equal("Ada", eff.Name)
	})

	s.Run("overlay is never persisted", func() {
		stored, err := s.profiles.FindByID(s.ctx, individual.ID)
		s.Require().NoError(err)
		s.Equal("Own Co", stored.Company)
		s.Empty(stored.Logo)
	})

	s.Run("shared profile passes through unchanged", func() {
		eff, err := s.service.Effective(s.ctx, shared)
		s.NoError(err)
		s.Equal(shared, eff)
	})

	s.Run("owner without a team passes through", func() {
		solo := s.newUser("solo")
		p := s.newProfile(solo, false)
		p.Company = "Solo Co"
		eff, err := s.service.Effective(s.ctx, p)
		s.NoError(err)
		s.Equal("Solo Co", eff.Company)
	})
}

func (s *ProfileServiceSuite) TestCard() {
	owner := s.newUser("ada")
	p := s.newProfile(owner, true)

	l, err := link.New(domain.NewLinkID(), p.ID, "github", "GitHub", "ada", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.links.Create(s.ctx, l))

	card, err := s.service.Card(s.ctx, "ada", domain.UserID{})
	s.NoError(err)
	s.Equal(p.ID, card.Profile.ID)
	s.Equal("ada", card.Username)
	s.Len(card.Links, 1)
	s.Empty(card.Products)
}

func (s *ProfileServiceSuite) TestDelete() {
	owner := s.newUser("ada")
	live := s.newProfile(owner, true)
	other := s.newProfile(owner, false)

	l, err := link.New(domain.NewLinkID(), other.ID, "github", "GitHub", "ada", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.links.Create(s.ctx, l))

	s.Run("live profile cannot be deleted", func() {
		err := s.service.Delete(s.ctx, live.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("delete purges dependents", func() {
		s.NoError(s.service.Delete(s.ctx, other.ID))

		_, err := s.profiles.FindByID(s.ctx, other.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		remaining, err := s.links.ListByProfile(s.ctx, other.ID)
		s.NoError(err)
		s.Empty(remaining)
	})

	s.Run("missing profile is not found", func() {
		err := s.service.Delete(s.ctx, domain.NewProfileID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ProfileServiceSuite) TestCreateShared() {
	id, err := s.service.CreateShared(s.ctx)
	s.NoError(err)

	p, err := s.profiles.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(p.IsShared())
}

func (s *ProfileServiceSuite) TestUpdateCannotTouchCounters() {
	owner := s.newUser("ada")
	p := s.newProfile(owner, false)
	s.Require().NoError(s.profiles.AddEngagement(s.ctx, p.ID, 5, 2))

	name := "Ada L."
	updated, err := s.service.Update(s.ctx, p.ID, Update{Name: &name})
	s.NoError(err)
	s.Equal("Ada L.", updated.Name)

	stored, err := s.profiles.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.EqualValues(5, stored.Views)
	s.EqualValues(2, stored.Taps)
}
