package tag

import (
	"context"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

type InMemory struct {
	mu         sync.RWMutex
	tags       map[domain.TagID]*Tag
	byCustomID map[string]domain.TagID
}

func NewInMemory() *InMemory {
	return &InMemory{
		tags:       make(map[domain.TagID]*Tag),
		byCustomID: make(map[string]domain.TagID),
	}
}

func (s *InMemory) Create(_ context.Context, t *Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCustomID[t.CustomID]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.tags[t.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *t
	s.tags[t.ID] = &c
	s.byCustomID[t.CustomID] = t.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.TagID) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tags[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (s *InMemory) FindByCustomID(_ context.Context, customID string) (*Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCustomID[customID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *s.tags[id]
	return &c, nil
}

func (s *InMemory) BindUser(_ context.Context, id domain.TagID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.Bound() {
		return sentinel.ErrInvalidState
	}
	t.User = userID
	return nil
}

func (s *InMemory) UnbindUser(_ context.Context, id domain.TagID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.User = domain.UserID{}
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.TagID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byCustomID, t.CustomID)
	delete(s.tags, id)
	return nil
}
