//go:build integration

package profile_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardlink/internal/profile"
	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *profile.Postgres
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
	s.store = profile.NewPostgres(s.postgres.DB)
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "profiles"))
}

func (s *PostgresStoreSuite) create() *profile.Profile {
	p := profile.New(domain.NewProfileID(), domain.NewUserID(), s.now)
	s.Require().NoError(s.store.Create(context.Background(), p))
	return p
}

// TestConcurrentAddEngagement verifies counter bumps are atomic increments:
// no lost updates under concurrent resolutions.
func (s *PostgresStoreSuite) TestConcurrentAddEngagement() {
	ctx := context.Background()
	p := s.create()
	const goroutines = 50

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Require().NoError(s.store.AddEngagement(ctx, p.ID, 1, 1))
		}()
	}
	wg.Wait()

	stored, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.EqualValues(goroutines, stored.Views)
	s.EqualValues(goroutines, stored.Taps)
}

// TestUpdateDoesNotTouchCounters verifies a display-field update racing with
// engagement bumps never rolls the counters back.
func (s *PostgresStoreSuite) TestUpdateDoesNotTouchCounters() {
	ctx := context.Background()
	p := s.create()

	s.Require().NoError(s.store.AddEngagement(ctx, p.ID, 10, 3))

	// The caller holds a stale copy with zero counters.
	p.Name = "Ada"
	s.Require().NoError(s.store.Update(ctx, p))

	stored, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Ada", stored.Name)
	s.EqualValues(10, stored.Views)
	s.EqualValues(3, stored.Taps)
}

func (s *PostgresStoreSuite) TestSharedProfileRoundTrip() {
	ctx := context.Background()
	p := profile.NewShared(domain.NewProfileID(), s.now)
	p.Company = "Team Co"
	s.Require().NoError(s.store.Create(ctx, p))

	stored, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.True(stored.IsShared())
	s.Equal("Team Co", stored.Company)
}

func (s *PostgresStoreSuite) TestListByUser() {
	ctx := context.Background()
	userID := domain.NewUserID()

	first := profile.New(domain.NewProfileID(), userID, s.now)
	second := profile.New(domain.NewProfileID(), userID, s.now.Add(time.Minute))
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))
	s.create()

	out, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Len(out, 2)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	p := s.create()

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	_, err := s.store.FindByID(ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound)
}
