package lead

import (
	"context"
	"sort"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

type pairKey struct {
	user    domain.UserID
	profile domain.ProfileID
}

type InMemory struct {
	mu     sync.RWMutex
	leads  map[domain.LeadID]*Lead
	byPair map[pairKey]domain.LeadID
}

func NewInMemory() *InMemory {
	return &InMemory{
		leads:  make(map[domain.LeadID]*Lead),
		byPair: make(map[pairKey]domain.LeadID),
	}
}

func (s *InMemory) CreateIfAbsent(_ context.Context, l *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leads[l.ID]; exists {
		return sentinel.ErrConflict
	}
	if !l.Manual() {
		key := pairKey{user: l.User, profile: l.Profile}
		if _, taken := s.byPair[key]; taken {
			return sentinel.ErrConflict
		}
		s.byPair[key] = l.ID
	}
	c := *l
	s.leads[l.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LeadID) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (s *InMemory) FindByUserAndProfile(_ context.Context, userID domain.UserID, profileID domain.ProfileID) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey{user: userID, profile: profileID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *s.leads[id]
	return &c, nil
}

func (s *InMemory) Update(_ context.Context, l *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.leads[l.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c := *l
	// The (user, profile) pair is immutable after creation.
	c.User = stored.User
	c.Profile = stored.Profile
	s.leads[l.ID] = &c
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.LeadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !l.Manual() {
		delete(s.byPair, pairKey{user: l.User, profile: l.Profile})
	}
	delete(s.leads, id)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID domain.UserID) ([]*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Lead
	for _, l := range s.leads {
		if l.User == userID {
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
	for id, l := range s.leads {
		if l.Profile == profileID {
			delete(s.byPair, pairKey{user: l.User, profile: l.Profile})
			delete(s.leads, id)
		}
	}
	return nil
}
