package product

import (
	"context"
	"errors"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// Service manages products on a profile. Ownership of the enclosing profile
// is checked by the caller's authorization layer.
type Service struct {
	products Store
}

func NewService(products Store) *Service {
	return &Service{products: products}
}

type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	Image       string `json:"image"`
}

func (s *Service) Create(ctx context.Context, profileID domain.ProfileID, in Input) (*Product, error) {
	p, err := New(domain.NewProductID(), profileID, in.Title, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	p.Description = in.Description
	p.Price = in.Price
	p.URL = in.URL
	p.Image = in.Image
	if err := s.products.Create(ctx, p); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id domain.ProductID) (*Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Update carries optional field changes; nil means "leave unchanged".
type Update struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	URL         *string `json:"url"`
	Image       *string `json:"image"`
}

func (s *Service) Update(ctx context.Context, id domain.ProductID, upd Update) (*Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "product title cannot be empty")
		}
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.URL != nil {
		p.URL = *upd.URL
	}
	if upd.Image != nil {
		p.Image = *upd.Image
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ProductID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Service) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*Product, error) {
	out, err := s.products.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// DeleteByProfile removes all products on a profile. Called by the profile
// deletion orchestrator.
func (s *Service) DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error {
	if err := s.products.DeleteByProfile(ctx, profileID); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "product not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "product store failure")
	}
}
