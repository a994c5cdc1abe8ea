package product

import (
	"context"
	"sort"
	"sync"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	products map[domain.ProductID]*Product
}

func NewInMemory() *InMemory {
	return &InMemory{products: make(map[domain.ProductID]*Product)}
}

func (s *InMemory) Create(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ProductID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *InMemory) Update(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *InMemory) ListByProfile(_ context.Context, profileID domain.ProfileID) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Product
	for _, p := range s.products {
		if p.Profile == profileID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) DeleteByProfile(_ context.Context, profileID domain.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.products {
		if p.Profile == profileID {
			delete(s.products, id)
		}
	}
	return nil
}
