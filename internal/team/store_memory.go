package team

import (
	"context"
	"slices"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	teams map[domain.TeamID]*Team
}

func NewInMemory() *InMemory {
	return &InMemory{teams: make(map[domain.TeamID]*Team)}
}

func clone(t *Team) *Team {
	c := *t
	c.Admins = slices.Clone(t.Admins)
	return &c
}

func (s *InMemory) Create(_ context.Context, t *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teams[t.ID]; exists {
		return sentinel.ErrConflict
	}
	s.teams[t.ID] = clone(t)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.TeamID) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(t), nil
}

func (s *InMemory) Update(_ context.Context, t *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.teams[t.ID] = clone(t)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.teams, id)
	return nil
}
