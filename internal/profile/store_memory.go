package profile

import (
	"context"
	"sort"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	profiles map[domain.ProfileID]*Profile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[domain.ProfileID]*Profile)}
}

func (s *InMemory) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *p
	s.profiles[p.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ProfileID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *InMemory) Update(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.profiles[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c := *p
	// Counters belong to AddEngagement; keep the stored values.
	c.Views = stored.Views
	c.Taps = stored.Taps
	s.profiles[p.ID] = &c
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID domain.UserID) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.User == userID && !userID.IsNil() {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) AddEngagement(_ context.Context, id domain.ProfileID, views, taps int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Views += views
	p.Taps += taps
	return nil
}
