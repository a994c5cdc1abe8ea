package lead

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cardlink/internal/platform/events"
	"cardlink/internal/platform/metrics"
	"cardlink/internal/profile"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// Users is the slice of the user store the ledger needs: lookups plus the
// mirrored ordered leads set.
type Users interface {
	FindByID(ctx context.Context, id domain.UserID) (*user.User, error)
	AppendLead(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error
	RemoveLead(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error
}

// Profiles reads profiles with the team cascade applied. The profile service
// implements it.
type Profiles interface {
	Get(ctx context.Context, id domain.ProfileID) (*profile.Profile, error)
	Effective(ctx context.Context, p *profile.Profile) (*profile.Profile, error)
}

// Service is the connection ledger: toggling connections, reciprocity, and
// manual contacts.
type Service struct {
	leads    Store
	users    Users
	profiles Profiles
	events   events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(leads Store, users Users, profiles Profiles, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		leads:    leads,
		users:    users,
		profiles: profiles,
		events:   publisher,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("cardlink/lead"),
	}
}

// Input carries a toggle or manual contact. Profile is nil for manual
// contacts.
type Input struct {
	Profile   *domain.ProfileID `json:"profile"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	JobTitle  string            `json:"jobTitle"`
	Company   string            `json:"company"`
	Notes     string            `json:"notes"`
	Location  string            `json:"location"`
	Website   string            `json:"website"`
	Image     string            `json:"image"`
	Cover     string            `json:"cover"`
	Logo      string            `json:"logo"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
}

// Toggle flips the initiator's connection to a profile. A nil result means
// the existing connection was removed. Manual contacts always create.
//
// Creating a connection may create one reciprocal connection for the profile
// owner when the profile captures leads and no reverse edge exists yet.
// Reciprocity never recurses.
func (s *Service) Toggle(ctx context.Context, in Input) (*Lead, error) {
	ctx, span := s.tracer.Start(ctx, "lead.toggle")
	defer span.End()

	initiator := requestcontext.UserID(ctx)
	if initiator.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	if _, err := s.users.FindByID(ctx, initiator); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "initiating user not found")
		}
		return nil, translate(err)
	}

	if in.Profile == nil {
		span.SetAttributes(attribute.String("toggle.kind", "manual"))
		return s.createManual(ctx, initiator, in)
	}
	span.SetAttributes(attribute.String("toggle.kind", "profile"))

	target, err := s.profiles.Get(ctx, *in.Profile)
	if err != nil {
		return nil, err
	}

	existing, err := s.leads.FindByUserAndProfile(ctx, initiator, target.ID)
	switch {
	case err == nil:
		return nil, s.remove(ctx, existing)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, translate(err)
	}

	l := s.build(ctx, initiator, in)
	l.Profile = target.ID
	if err := s.leads.CreateIfAbsent(ctx, l); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "already connected to this profile")
		}
		return nil, translate(err)
	}
	if err := s.users.AppendLead(ctx, initiator, target.ID); err != nil {
		return nil, translate(err)
	}
	s.recordCreated(ctx, l)

	s.reciprocate(ctx, initiator, target)
	return l, nil
}

func (s *Service) createManual(ctx context.Context, initiator domain.UserID, in Input) (*Lead, error) {
	l := s.build(ctx, initiator, in)
	if err := s.leads.CreateIfAbsent(ctx, l); err != nil {
		return nil, translate(err)
	}
	s.recordCreated(ctx, l)
	return l, nil
}

func (s *Service) build(ctx context.Context, userID domain.UserID, in Input) *Lead {
	now := requestcontext.Now(ctx)
	return &Lead{
		ID:        domain.NewLeadID(),
		User:      userID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		JobTitle:  in.JobTitle,
		Company:   in.Company,
		Notes:     in.Notes,
		Location:  in.Location,
		Website:   in.Website,
		Image:     in.Image,
		Cover:     in.Cover,
		Logo:      in.Logo,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) remove(ctx context.Context, l *Lead) error {
	if err := s.leads.Delete(ctx, l.ID); err != nil {
		return translate(err)
	}
	if !l.Manual() {
		if err := s.users.RemoveLead(ctx, l.User, l.Profile); err != nil {
			return translate(err)
		}
	}
	s.metrics.LeadsRemoved.Inc()
	s.events.Emit(ctx, events.Event{
		Type:      events.TypeLeadRemoved,
		Timestamp: requestcontext.Now(ctx),
		UserID:    l.User.String(),
		ProfileID: profileRef(l),
		LeadID:    l.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

func profileRef(l *Lead) string {
	if l.Manual() {
		return ""
	}
	return l.Profile.String()
}

// reciprocate gives the profile owner a reverse connection to the initiator's
// live profile. Best-effort: the forward connection stands even when this
// fails.
func (s *Service) reciprocate(ctx context.Context, initiator domain.UserID, target *profile.Profile) {
	owner := target.User
	if owner.IsNil() || owner == initiator || !target.LeadCapture {
		return
	}

	initiatorUser, err := s.users.FindByID(ctx, initiator)
	if err != nil || initiatorUser.Live.IsNil() {
		return
	}
	if _, err := s.leads.FindByUserAndProfile(ctx, owner, initiatorUser.Live); err == nil {
		return
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "reciprocity check failed", "error", err)
		return
	}

	live, err := s.profiles.Get(ctx, initiatorUser.Live)
	if err != nil {
		s.logger.WarnContext(ctx, "reciprocity source lookup failed", "error", err)
		return
	}
	eff, err := s.profiles.Effective(ctx, live)
	if err != nil {
		eff = live
	}

	now := requestcontext.Now(ctx)
	reciprocal := &Lead{
		ID:        domain.NewLeadID(),
		User:      owner,
		Profile:   live.ID,
		Name:      eff.Name,
		Email:     initiatorUser.Email,
		JobTitle:  eff.JobTitle,
		Company:   eff.Company,
		Location:  eff.Location,
		Image:     eff.Image,
		Cover:     eff.Cover,
		Logo:      eff.Logo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.leads.CreateIfAbsent(ctx, reciprocal); err != nil {
		if !errors.Is(err, sentinel.ErrConflict) {
			s.logger.WarnContext(ctx, "reciprocal lead failed", "error", err)
		}
		return
	}
	if err := s.users.AppendLead(ctx, owner, live.ID); err != nil {
		s.logger.WarnContext(ctx, "reciprocal leads set update failed", "error", err)
	}
	s.recordCreated(ctx, reciprocal)
}

func (s *Service) recordCreated(ctx context.Context, l *Lead) {
	s.metrics.LeadsCreated.Inc()
	s.events.Emit(ctx, events.Event{
		Type:      events.TypeLeadCreated,
		Timestamp: requestcontext.Now(ctx),
		UserID:    l.User.String(),
		ProfileID: profileRef(l),
		LeadID:    l.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
}

func (s *Service) Get(ctx context.Context, id domain.LeadID) (*Lead, error) {
	l, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.authorize(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// WithProfile pairs a lead with the effective profile behind it; Profile is
// nil for manual contacts.
type WithProfile struct {
	Lead    *Lead            `json:"lead"`
	Profile *profile.Profile `json:"profile,omitempty"`
}

// List returns the principal's leads, each enriched with the connected
// profile under its team cascade.
func (s *Service) List(ctx context.Context) ([]*WithProfile, error) {
	principal := requestcontext.UserID(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	raw, err := s.leads.ListByUser(ctx, principal)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]*WithProfile, 0, len(raw))
	for _, l := range raw {
		entry := &WithProfile{Lead: l}
		if !l.Manual() {
			p, err := s.profiles.Get(ctx, l.Profile)
			if err == nil {
				if entry.Profile, err = s.profiles.Effective(ctx, p); err != nil {
					entry.Profile = p
				}
			} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil, err
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// Update edits the contact fields of a lead. The (user, profile) pair is
// immutable.
type Update struct {
	Name      *string  `json:"name"`
	Email     *string  `json:"email"`
	Phone     *string  `json:"phone"`
	JobTitle  *string  `json:"jobTitle"`
	Company   *string  `json:"company"`
	Notes     *string  `json:"notes"`
	Location  *string  `json:"location"`
	Website   *string  `json:"website"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (s *Service) Update(ctx context.Context, id domain.LeadID, upd Update) (*Lead, error) {
	l, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.authorize(ctx, l); err != nil {
		return nil, err
	}
	applyUpdate(l, upd)
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, translate(err)
	}
	return l, nil
}

func applyUpdate(l *Lead, upd Update) {
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Email != nil {
		l.Email = *upd.Email
	}
	if upd.Phone != nil {
		l.Phone = *upd.Phone
	}
	if upd.JobTitle != nil {
		l.JobTitle = *upd.JobTitle
	}
	if upd.Company != nil {
		l.Company = *upd.Company
	}
	if upd.Notes != nil {
		l.Notes = *upd.Notes
	}
	if upd.Location != nil {
		l.Location = *upd.Location
	}
	if upd.Website != nil {
		l.Website = *upd.Website
	}
	if upd.Latitude != nil {
		l.Latitude = *upd.Latitude
	}
	if upd.Longitude != nil {
		l.Longitude = *upd.Longitude
	}
}

func (s *Service) Delete(ctx context.Context, id domain.LeadID) error {
	l, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if err := s.authorize(ctx, l); err != nil {
		return err
	}
	if err := s.remove(ctx, l); err != nil {
		return err
	}
	return nil
}

// DeleteByProfile removes every connection to a profile. Called by the
// profile deletion orchestrator.
func (s *Service) DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error {
	if err := s.leads.DeleteByProfile(ctx, profileID); err != nil {
		return translate(err)
	}
	return nil
}

// authorize limits lead access to the owning user and platform admins. Leads
// are personal records; team authority does not extend here.
func (s *Service) authorize(ctx context.Context, l *Lead) error {
	principal := requestcontext.UserID(ctx)
	if l.User == principal || requestcontext.Role(ctx) == "admin" {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "lead belongs to another user")
}

func translate(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "lead not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting lead record")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "lead store failure")
	}
}
