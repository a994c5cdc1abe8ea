package tag

import (
	"context"
	"errors"
	"log/slog"

	"cardlink/internal/platform/events"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/secrets"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// Service manages the tag lifecycle: provisioning, activation, release.
type Service struct {
	tags   Store
	events events.Publisher
	logger *slog.Logger
}

func NewService(tags Store, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{tags: tags, events: publisher, logger: logger}
}

// Provisioned is the one-time provisioning result. ClaimCode is returned in
// plaintext exactly once; only its hash is stored.
type Provisioned struct {
	Tag       *Tag   `json:"tag"`
	ClaimCode string `json:"claimCode"`
}

// Provision mints an unbound tag under customID, with a fresh claim code the
// caller prints alongside the physical tag.
func (s *Service) Provision(ctx context.Context, customID string) (*Provisioned, error) {
	t, err := New(domain.NewTagID(), customID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	code, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate claim code")
	}
	if t.SecretHash, err = secrets.Hash(code); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash claim code")
	}

	if err := s.tags.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tag customId already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tag")
	}
	return &Provisioned{Tag: t, ClaimCode: code}, nil
}

func (s *Service) Get(ctx context.Context, id domain.TagID) (*Tag, error) {
	t, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

func (s *Service) GetByCustomID(ctx context.Context, customID string) (*Tag, error) {
	t, err := s.tags.FindByCustomID(ctx, customID)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

// Activate binds the tag named by identifier (tag ID or customId) to the
// authenticated user. A tag already bound to anyone, including the caller,
// cannot be activated again; release it first. The claim code must match when
// the tag carries one.
func (s *Service) Activate(ctx context.Context, identifier, claimCode string) (*Tag, error) {
	principal := requestcontext.UserID(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}

	t, err := s.find(ctx, identifier)
	if err != nil {
		return nil, translate(err)
	}
	if t.Bound() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "tag is already linked")
	}
	if t.SecretHash != "" && !secrets.Verify(t.SecretHash, claimCode) {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid claim code")
	}

	if err := s.tags.BindUser(ctx, t.ID, principal); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Lost the race to another activation.
			return nil, dErrors.New(dErrors.CodePreconditionFailed, "tag is already linked")
		}
		return nil, translate(err)
	}
	t.User = principal

	s.events.Emit(ctx, events.Event{
		Type:      events.TypeTagActivated,
		Timestamp: requestcontext.Now(ctx),
		UserID:    principal.String(),
		TagID:     t.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	s.logger.InfoContext(ctx, "tag activated", "tag_id", t.ID, "custom_id", t.CustomID)
	return t, nil
}

func (s *Service) find(ctx context.Context, identifier string) (*Tag, error) {
	if id, err := domain.ParseTagID(identifier); err == nil {
		return s.tags.FindByID(ctx, id)
	}
	return s.tags.FindByCustomID(ctx, identifier)
}

// Release unbinds the tag. Only the bound user or a platform admin may
// release it.
func (s *Service) Release(ctx context.Context, id domain.TagID) error {
	t, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	principal := requestcontext.UserID(ctx)
	if t.User != principal && requestcontext.Role(ctx) != "admin" {
		return dErrors.New(dErrors.CodeForbidden, "tag is linked to another user")
	}
	if err := s.tags.UnbindUser(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id domain.TagID) error {
	if err := s.tags.Delete(ctx, id); err != nil {
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
		return dErrors.Wrap(err, dErrors.CodeNotFound, "tag not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting tag record")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "tag store failure")
	}
}
