package user

import (
	"context"
	"slices"
	"strings"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded store used by unit tests and single-node dev
// setups. It enforces the same uniqueness contracts as the postgres store.
type InMemory struct {
	mu         sync.RWMutex
	users      map[domain.UserID]*User
	byEmail    map[string]domain.UserID
	byUsername map[string]domain.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:      make(map[domain.UserID]*User),
		byEmail:    make(map[string]domain.UserID),
		byUsername: make(map[string]domain.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := strings.ToLower(u.Email)
	usernameKey := strings.ToLower(u.Username)
	if _, taken := s.byEmail[emailKey]; taken {
		return sentinel.ErrConflict
	}
	if _, taken := s.byUsername[usernameKey]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}

	s.users[u.ID] = clone(u)
	s.byEmail[emailKey] = u.ID
	s.byUsername[usernameKey] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(u), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.users[id]), nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.users[id]), nil
}

func (s *InMemory) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}

	emailKey := strings.ToLower(u.Email)
	usernameKey := strings.ToLower(u.Username)
	if owner, taken := s.byEmail[emailKey]; taken && owner != u.ID {
		return sentinel.ErrConflict
	}
	if owner, taken := s.byUsername[usernameKey]; taken && owner != u.ID {
		return sentinel.ErrConflict
	}

	delete(s.byEmail, strings.ToLower(current.Email))
	delete(s.byUsername, strings.ToLower(current.Username))
	s.users[u.ID] = clone(u)
	s.byEmail[emailKey] = u.ID
	s.byUsername[usernameKey] = u.ID
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.byUsername, strings.ToLower(u.Username))
	delete(s.users, id)
	return nil
}

func (s *InMemory) ListByTeam(_ context.Context, teamID domain.TeamID) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []*User
	for _, u := range s.users {
		if u.Team == teamID {
			members = append(members, clone(u))
		}
	}
	return members, nil
}

func (s *InMemory) SetTeam(_ context.Context, id domain.UserID, teamID domain.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Team = teamID
	if teamID.IsNil() {
		u.Locked = false
	}
	return nil
}

func (s *InMemory) SetLive(_ context.Context, id domain.UserID, profileID domain.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Live = profileID
	return nil
}

func (s *InMemory) AppendLead(_ context.Context, id domain.UserID, profileID domain.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(u.Leads, profileID) {
		u.Leads = append(u.Leads, profileID)
	}
	return nil
}

func (s *InMemory) RemoveLead(_ context.Context, id domain.UserID, profileID domain.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Leads = slices.DeleteFunc(u.Leads, func(p domain.ProfileID) bool { return p == profileID })
	return nil
}

func clone(u *User) *User {
	c := *u
	c.Leads = slices.Clone(u.Leads)
	return &c
}
