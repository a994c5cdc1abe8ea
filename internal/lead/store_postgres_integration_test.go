//go:build integration

package lead_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardlink/internal/lead"
	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *lead.Postgres
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
	s.store = lead.NewPostgres(s.postgres.DB)
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "leads"))
}

func (s *PostgresStoreSuite) newLead(userID domain.UserID, profileID domain.ProfileID) *lead.Lead {
	return &lead.Lead{
		ID:        domain.NewLeadID(),
		User:      userID,
		Profile:   profileID,
		Name:      "Ada",
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

// TestConcurrentCreateIfAbsent verifies the partial unique index admits
// exactly one connection per (user, profile) pair under concurrency.
func (s *PostgresStoreSuite) TestConcurrentCreateIfAbsent() {
	ctx := context.Background()
	userID := domain.NewUserID()
	profileID := domain.NewProfileID()
	const goroutines = 20

	var wg sync.WaitGroup
	var created atomic.Int32
	var conflicts atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfAbsent(ctx, s.newLead(userID, profileID))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	leads, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Len(leads, 1)
}

// TestManualContactsExempt verifies the uniqueness constraint does not apply
// to contacts without a profile.
func (s *PostgresStoreSuite) TestManualContactsExempt() {
	ctx := context.Background()
	userID := domain.NewUserID()

	for range 3 {
		l := s.newLead(userID, domain.ProfileID{})
		l.ID = domain.NewLeadID()
		s.Require().NoError(s.store.CreateIfAbsent(ctx, l))
	}

	leads, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Len(leads, 3)
}

func (s *PostgresStoreSuite) TestFindByUserAndProfile() {
	ctx := context.Background()
	userID := domain.NewUserID()
	profileID := domain.NewProfileID()

	l := s.newLead(userID, profileID)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, l))

	found, err := s.store.FindByUserAndProfile(ctx, userID, profileID)
	s.Require().NoError(err)
	s.Equal(l.ID, found.ID)

	_, err = s.store.FindByUserAndProfile(ctx, userID, domain.NewProfileID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateKeepsPairImmutable() {
	ctx := context.Background()
	userID := domain.NewUserID()
	profileID := domain.NewProfileID()

	l := s.newLead(userID, profileID)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, l))

	l.Name = "Ada L."
	l.User = domain.NewUserID()
	l.Profile = domain.NewProfileID()
	s.Require().NoError(s.store.Update(ctx, l))

	stored, err := s.store.FindByID(ctx, l.ID)
	s.Require().NoError(err)
	s.Equal("Ada L.", stored.Name)
	s.Equal(userID, stored.User)
	s.Equal(profileID, stored.Profile)
}

func (s *PostgresStoreSuite) TestDeleteByProfile() {
	ctx := context.Background()
	profileID := domain.NewProfileID()

	for range 3 {
		s.Require().NoError(s.store.CreateIfAbsent(ctx, s.newLead(domain.NewUserID(), profileID)))
	}
	survivor := s.newLead(domain.NewUserID(), domain.NewProfileID())
	s.Require().NoError(s.store.CreateIfAbsent(ctx, survivor))

	s.Require().NoError(s.store.DeleteByProfile(ctx, profileID))

	_, err := s.store.FindByID(ctx, survivor.ID)
	s.NoError(err)
	remaining, err := s.store.ListByUser(ctx, survivor.User)
	s.Require().NoError(err)
	s.Len(remaining, 1)
}
