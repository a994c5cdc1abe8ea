package link

import (
	"context"
	"sort"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	links map[domain.LinkID]*Link
}

func NewInMemory() *InMemory {
	return &InMemory{links: make(map[domain.LinkID]*Link)}
}

func (s *InMemory) Create(_ context.Context, l *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[l.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *l
	s.links[l.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LinkID) (*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (s *InMemory) Update(_ context.Context, l *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *l
	s.links[l.ID] = &c
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.LinkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.links, id)
	return nil
}

func (s *InMemory) ListByProfile(_ context.Context, profileID domain.ProfileID) ([]*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Link
	for _, l := range s.links {
		if l.Profile == profileID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) DeleteByProfile(_ context.Context, profileID domain.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.links {
		if l.Profile == profileID {
			delete(s.links, id)
		}
	}
	return nil
}
