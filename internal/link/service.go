package link

import (
	"context"
	"errors"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// Service manages links on a profile. Ownership of the enclosing profile is
// checked by the caller's authorization layer.
type Service struct {
	links Store
}

func NewService(links Store) *Service {
	return &Service{links: links}
}

type Input struct {
	Platform  string `json:"platform"`
	Title     string `json:"title"`
	Value     string `json:"value"`
	IsContact bool   `json:"isContact"`
}

func (s *Service) Create(ctx context.Context, profileID domain.ProfileID, in Input) (*Link, error) {
	l, err := New(domain.NewLinkID(), profileID, in.Platform, in.Title, in.Value, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	l.IsContact = in.IsContact
	if err := s.links.Create(ctx, l); err != nil {
		return nil, translate(err)
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id domain.LinkID) (*Link, error) {
	l, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// Update carries optional field changes; nil means "leave unchanged".
type Update struct {
	Platform  *string `json:"platform"`
	Title     *string `json:"title"`
	Value     *string `json:"value"`
	IsContact *bool   `json:"isContact"`
}

func (s *Service) Update(ctx context.Context, id domain.LinkID, upd Update) (*Link, error) {
	l, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if upd.Platform != nil {
		l.Platform = *upd.Platform
	}
	if upd.Title != nil {
		l.Title = *upd.Title
	}
	if upd.Value != nil {
		if *upd.Value == "" {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "link value cannot be empty")
		}
		l.Value = *upd.Value
	}
	if upd.IsContact != nil {
		l.IsContact = *upd.IsContact
	}
	if err := s.links.Update(ctx, l); err != nil {
		return nil, translate(err)
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id domain.LinkID) error {
	if err := s.links.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Service) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*Link, error) {
	out, err := s.links.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// DeleteByProfile removes all links on a profile. Called by the profile
// deletion orchestrator.
func (s *Service) DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error {
	if err := s.links.DeleteByProfile(ctx, profileID); err != nil {
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
		return dErrors.Wrap(err, dErrors.CodeNotFound, "link not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "link store failure")
	}
}
