package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"cardlink/internal/lead"
	"cardlink/internal/link"
	"cardlink/internal/platform/events"
	"cardlink/internal/platform/metrics"
	"cardlink/internal/platform/token"
	"cardlink/internal/policy"
	"cardlink/internal/product"
	"cardlink/internal/profile"
	"cardlink/internal/tag"
	"cardlink/internal/team"
	httptransport "cardlink/internal/transport/http"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
	"cardlink/pkg/platform/tx"
)

// RouterSuite exercises the wired router end to end against memory stores:
// routing, auth gating, and domain-error to status mapping.
type RouterSuite struct {
	suite.Suite
	handler  http.Handler
	tokens   *token.Service
	users    *user.InMemory
	profiles *profile.InMemory
	now      time.Time
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.users = user.NewInMemory()
	s.profiles = profile.NewInMemory()
	teamStore := team.NewInMemory()
	tagStore := tag.NewInMemory()
	linkStore := link.NewInMemory()
	productStore := product.NewInMemory()
	leadStore := lead.NewInMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())

	profileSvc := profile.NewService(profile.Deps{
		Profiles:   s.profiles,
		Users:      s.users,
		Tags:       tagStore,
		Links:      linkStore,
		Products:   productStore,
		Dependents: []profile.Dependent{linkStore, productStore, leadStore},
		Events:     events.Nop{},
		Metrics:    m,
		Logger:     logger,
	})
	userSvc := user.NewService(s.users, profileSvc)
	leadSvc := lead.NewService(leadStore, s.users, profileSvc, events.Nop{}, m, logger)
	tagSvc := tag.NewService(tagStore, events.Nop{}, logger)
	teamSvc := team.NewService(team.Deps{
		Teams:        teamStore,
		Directory:    userSvc,
		Members:      userSvc,
		Profiles:     profileSvc,
		Purge:        profileSvc,
		Entitlements: team.NopEntitlements{},
		Inviter:      team.LogInviter{Logger: logger},
		Runner:       tx.NopRunner{},
		Events:       events.Nop{},
		Metrics:      m,
		Logger:       logger,
	})
	profileSvc.SetTeams(teamSvc)

	s.tokens = token.NewService("test-signing-key", "cardlink")
	s.handler = httptransport.NewRouter(httptransport.Deps{
		Logger:    logger,
		Metrics:   m,
		Validator: s.tokens,
		Cards:     profileSvc,
		Profiles:  profileSvc,
		Users:     userSvc,
		Live:      userSvc,
		Leads:     leadSvc,
		Teams:     teamSvc,
		Tags:      tagSvc,
		Links:     link.NewService(linkStore),
		Products:  product.NewService(productStore),
		Authz:     policy.NewAuthorizer(s.users, teamStore),
		HealthChecks: map[string]func(context.Context) error{
			"memory": func(context.Context) error { return nil },
		},
	})
}

func (s *RouterSuite) newUser(username string) *user.User {
	u, err := user.New(domain.NewUserID(), username, username+"@example.com", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(context.Background(), u))
	return u
}

func (s *RouterSuite) newLiveProfile(owner *user.User) *profile.Profile {
	p := profile.New(domain.NewProfileID(), owner.ID, s.now)
	s.Require().NoError(s.profiles.Create(context.Background(), p))
	s.Require().NoError(s.users.SetLive(context.Background(), owner.ID, p.ID))
	return p
}

func (s *RouterSuite) bearer(u *user.User, role string) string {
	t, err := s.tokens.GenerateAccessToken(u.ID, role, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + t
}

func (s *RouterSuite) do(method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestPublicCard() {
	owner := s.newUser("ada")
	s.newLiveProfile(owner)

	s.Run("anonymous viewer gets the card", func() {
		rec := s.do(http.MethodGet, "/card/ada", "", nil)
		s.Equal(http.StatusOK, rec.Code)

		var card profile.Card
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &card))
		s.Equal("ada", card.Username)
	})

	s.Run("unknown identifier maps to 404", func() {
		rec := s.do(http.MethodGet, "/card/nobody", "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *RouterSuite) TestAuthGating() {
	s.Run("protected route rejects anonymous", func() {
		rec := s.do(http.MethodGet, "/profiles", "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("garbage token is rejected", func() {
		rec := s.do(http.MethodGet, "/profiles", "Bearer not-a-token", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("valid token passes", func() {
		ada := s.newUser("ada")
		rec := s.do(http.MethodGet, "/profiles", s.bearer(ada, "user"), nil)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *RouterSuite) TestProfileLifecycle() {
	ada := s.newUser("ada")
	auth := s.bearer(ada, "user")

	rec := s.do(http.MethodPost, "/profiles", auth, profile.Input{Title: "Work", Name: "Ada"})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created profile.Profile
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	s.Run("owner reads it back", func() {
		rec := s.do(http.MethodGet, "/profiles/"+created.ID.String(), auth, nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("stranger gets 403", func() {
		mallory := s.newUser("mallory")
		rec := s.do(http.MethodGet, "/profiles/"+created.ID.String(), s.bearer(mallory, "user"), nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("set live then delete maps the guard to 412", func() {
		rec := s.do(http.MethodPost, "/profiles/"+created.ID.String()+"/live", auth, nil)
		s.Require().Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodDelete, "/profiles/"+created.ID.String(), auth, nil)
		s.Equal(http.StatusPreconditionFailed, rec.Code)
	})

	s.Run("bad id maps to 400", func() {
		rec := s.do(http.MethodGet, "/profiles/not-a-uuid", auth, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RouterSuite) TestLeadToggle() {
	owner := s.newUser("ada")
	target := s.newLiveProfile(owner)
	grace := s.newUser("grace")
	auth := s.bearer(grace, "user")

	body := map[string]any{"profile": target.ID.String()}

	rec := s.do(http.MethodPost, "/leads/toggle", auth, body)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/leads/toggle", auth, body)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *RouterSuite) TestProfileLinks() {
	ada := s.newUser("ada")
	p := s.newLiveProfile(ada)
	auth := s.bearer(ada, "user")

	rec := s.do(http.MethodPost, "/profiles/"+p.ID.String()+"/links", auth, link.Input{Platform: "github", Value: "ada"})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created link.Link
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	s.Run("owner lists the link back", func() {
		rec := s.do(http.MethodGet, "/profiles/"+p.ID.String()+"/links", auth, nil)
		s.Equal(http.StatusOK, rec.Code)

		var out []link.Link
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Len(out, 1)
	})

	s.Run("stranger cannot delete it", func() {
		mallory := s.newUser("mallory")
		rec := s.do(http.MethodDelete, "/links/"+created.ID.String(), s.bearer(mallory, "user"), nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("owner deletes it", func() {
		rec := s.do(http.MethodDelete, "/links/"+created.ID.String(), auth, nil)
		s.Equal(http.StatusNoContent, rec.Code)
	})
}

func (s *RouterSuite) TestTagAdminGate() {
	grace := s.newUser("grace")

	rec := s.do(http.MethodPost, "/tags", s.bearer(grace, "user"), map[string]string{"customId": "TAG-9"})
	s.Equal(http.StatusForbidden, rec.Code)

	admin := s.newUser("root")
	rec = s.do(http.MethodPost, "/tags", s.bearer(admin, "admin"), map[string]string{"customId": "TAG-9"})
	s.Equal(http.StatusCreated, rec.Code)

	var out tag.Provisioned
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	s.NotEmpty(out.ClaimCode)
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}
