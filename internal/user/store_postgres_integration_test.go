//go:build integration

package user_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardlink/internal/user"
	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.Postgres
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "users"))
}

func (s *PostgresStoreSuite) create(username string) *user.User {
	u, err := user.New(domain.NewUserID(), username, username+"@example.com", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), u))
	return u
}

func (s *PostgresStoreSuite) TestUniqueness() {
	ctx := context.Background()
	s.create("ada")

	dup, err := user.New(domain.NewUserID(), "ADA", "other@example.com", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrConflict)

	dup, err = user.New(domain.NewUserID(), "other", "ADA@example.com", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrConflict)
}

// TestConcurrentAppendLead verifies the leads set stays duplicate-free when
// the same profile is appended concurrently.
func (s *PostgresStoreSuite) TestConcurrentAppendLead() {
	ctx := context.Background()
	u := s.create("ada")
	profileID := domain.NewProfileID()
	const goroutines = 20

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Require().NoError(s.store.AppendLead(ctx, u.ID, profileID))
		}()
	}
	wg.Wait()

	stored, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]domain.ProfileID{profileID}, stored.Leads)
}

func (s *PostgresStoreSuite) TestLeadsSetOrdering() {
	ctx := context.Background()
	u := s.create("ada")
	first := domain.NewProfileID()
	second := domain.NewProfileID()

	s.Require().NoError(s.store.AppendLead(ctx, u.ID, first))
	s.Require().NoError(s.store.AppendLead(ctx, u.ID, second))
	s.Require().NoError(s.store.RemoveLead(ctx, u.ID, first))

	stored, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]domain.ProfileID{second}, stored.Leads)
}

func (s *PostgresStoreSuite) TestTeamMembership() {
	ctx := context.Background()
	ada := s.create("ada")
	grace := s.create("grace")
	s.create("solo")
	teamID := domain.NewTeamID()

	s.Require().NoError(s.store.SetTeam(ctx, ada.ID, teamID))
	s.Require().NoError(s.store.SetTeam(ctx, grace.ID, teamID))

	members, err := s.store.ListByTeam(ctx, teamID)
	s.Require().NoError(err)
	s.Len(members, 2)

	s.Require().NoError(s.store.SetTeam(ctx, grace.ID, domain.TeamID{}))
	members, err = s.store.ListByTeam(ctx, teamID)
	s.Require().NoError(err)
	s.Len(members, 1)
}

func (s *PostgresStoreSuite) TestSetLive() {
	ctx := context.Background()
	u := s.create("ada")
	profileID := domain.NewProfileID()

	s.Require().NoError(s.store.SetLive(ctx, u.ID, profileID))

	stored, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(profileID, stored.Live)
}
