package profile

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cardlink/internal/link"
	"cardlink/internal/platform/events"
	"cardlink/internal/platform/metrics"
	"cardlink/internal/product"
	"cardlink/internal/tag"
	"cardlink/internal/user"
	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/requestcontext"
)

// UserDirectory is the slice of the user store the resolver needs.
type UserDirectory interface {
	FindByID(ctx context.Context, id domain.UserID) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

// TagDirectory is the slice of the tag store the resolver needs.
type TagDirectory interface {
	FindByID(ctx context.Context, id domain.TagID) (*tag.Tag, error)
	FindByCustomID(ctx context.Context, customID string) (*tag.Tag, error)
}

// TeamDirectory answers which shared profile a team presents. The team
// service implements it.
type TeamDirectory interface {
	SharedProfileID(ctx context.Context, id domain.TeamID) (domain.ProfileID, error)
}

// Dependent is anything that holds rows keyed by profile and must be purged
// when the profile goes away: links, products, leads.
type Dependent interface {
	DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error
}

// LinkSource and ProductSource feed card composition.
type LinkSource interface {
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*link.Link, error)
}

type ProductSource interface {
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*product.Product, error)
}

// Service resolves identifiers to profiles, applies the team attribute
// cascade, and owns the profile lifecycle.
type Service struct {
	profiles   Store
	users      UserDirectory
	tags       TagDirectory
	teams      TeamDirectory
	links      LinkSource
	products   ProductSource
	dependents []Dependent
	events     events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Deps collects the service's collaborators. TeamDirectory may stay nil
// until the team service is wired in; the cascade then no-ops.
type Deps struct {
	Profiles   Store
	Users      UserDirectory
	Tags       TagDirectory
	Teams      TeamDirectory
	Links      LinkSource
	Products   ProductSource
	Dependents []Dependent
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		profiles:   d.Profiles,
		users:      d.Users,
		tags:       d.Tags,
		teams:      d.Teams,
		links:      d.Links,
		products:   d.Products,
		dependents: d.Dependents,
		events:     d.Events,
		metrics:    d.Metrics,
		logger:     d.Logger,
		tracer:     otel.Tracer("cardlink/profile"),
	}
}

// SetTeams wires the team directory after construction. The team service
// depends on this service for shared profile provisioning, so the cycle is
// broken here at startup.
func (s *Service) SetTeams(teams TeamDirectory) { s.teams = teams }

// Resolution is the outcome of an identifier lookup. Profile carries the raw
// stored profile with counters already bumped; callers apply Effective before
// serving it.
type Resolution struct {
	Profile *Profile
	ViaTag  bool
	Path    string
}

const (
	pathProfile = "profile"
	pathUser    = "user"
	pathTag     = "tag"
)

// Resolve walks the identifier ladder: profile ID, then user ID or username
// and their live profile, then tag ID or customId and the bound user's live
// profile. A hit counts a view when the principal is not the owner, and a tap
// when the hit came through a tag.
func (s *Service) Resolve(ctx context.Context, identifier string, principal domain.UserID) (*Resolution, error) {
	ctx, span := s.tracer.Start(ctx, "profile.resolve")
	defer span.End()

	res, err := s.lookup(ctx, identifier)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.Resolutions.WithLabelValues("none", "miss").Inc()
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("resolve.path", res.Path),
		attribute.Bool("resolve.via_tag", res.ViaTag),
	)
	s.metrics.Resolutions.WithLabelValues(res.Path, "hit").Inc()

	s.engage(ctx, res, principal)
	return res, nil
}

// lookup runs the ladder without side effects.
func (s *Service) lookup(ctx context.Context, identifier string) (*Resolution, error) {
	if profileID, err := domain.ParseProfileID(identifier); err == nil {
		if p, err := s.profiles.FindByID(ctx, profileID); err == nil {
			return &Resolution{Profile: p, Path: pathProfile}, nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, translate(err)
		}

		if u, err := s.users.FindByID(ctx, domain.UserID(profileID)); err == nil {
			return s.liveOf(ctx, u, pathUser, false)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, translate(err)
		}

		if t, err := s.tags.FindByID(ctx, domain.TagID(profileID)); err == nil {
			return s.throughTag(ctx, t)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, translate(err)
		}

		return nil, dErrors.New(dErrors.CodeNotFound, "nothing matches this identifier")
	}

	if u, err := s.users.FindByUsername(ctx, identifier); err == nil {
		return s.liveOf(ctx, u, pathUser, false)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, translate(err)
	}

	if t, err := s.tags.FindByCustomID(ctx, identifier); err == nil {
		return s.throughTag(ctx, t)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, translate(err)
	}

	return nil, dErrors.New(dErrors.CodeNotFound, "nothing matches this identifier")
}

func (s *Service) throughTag(ctx context.Context, t *tag.Tag) (*Resolution, error) {
	if !t.Bound() {
		return nil, dErrors.New(dErrors.CodeNotFound, "tag is not linked to a user")
	}
	u, err := s.users.FindByID(ctx, t.User)
	if err != nil {
		return nil, translate(err)
	}
	return s.liveOf(ctx, u, pathTag, true)
}

func (s *Service) liveOf(ctx context.Context, u *user.User, path string, viaTag bool) (*Resolution, error) {
	if u.Live.IsNil() {
		return nil, dErrors.New(dErrors.CodeNotFound, "user has no live profile")
	}
	p, err := s.profiles.FindByID(ctx, u.Live)
	if err != nil {
		return nil, translate(err)
	}
	return &Resolution{Profile: p, Path: path, ViaTag: viaTag}, nil
}

// engage records the view/tap. A failed bump never fails the resolve; the
// card is still served.
func (s *Service) engage(ctx context.Context, res *Resolution, principal domain.UserID) {
	if res.Profile.OwnedBy(principal) {
		return
	}
	views := int64(1)
	var taps int64
	if res.ViaTag {
		taps = 1
	}
	if err := s.profiles.AddEngagement(ctx, res.Profile.ID, views, taps); err != nil {
		s.logger.WarnContext(ctx, "engagement bump failed", "profile_id", res.Profile.ID, "error", err)
		return
	}
	res.Profile.Views += views
	res.Profile.Taps += taps

	device := requestcontext.DeviceClass(ctx)
	if device == "" {
		device = "unknown"
	}
	s.metrics.ProfileViews.WithLabelValues(device).Inc()
	if taps > 0 {
		s.metrics.ProfileTaps.Inc()
	}
	s.events.Emit(ctx, events.Event{
		Type:      events.TypeProfileViewed,
		Timestamp: requestcontext.Now(ctx),
		UserID:    principal.String(),
		ProfileID: res.Profile.ID.String(),
		ViaTag:    res.ViaTag,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// Effective applies the team attribute cascade: when the owner belongs to a
// team with a shared profile, its non-empty company, theme color, logo and
// cover override the individual values. The overlay is computed per read and
// never stored. Ownerless profiles are returned as-is.
func (s *Service) Effective(ctx context.Context, p *Profile) (*Profile, error) {
	if p.IsShared() || s.teams == nil {
		return p, nil
	}
	owner, err := s.users.FindByID(ctx, p.User)
	if err != nil {
		return nil, translate(err)
	}
	if !owner.InTeam() {
		return p, nil
	}
	sharedID, err := s.teams.SharedProfileID(ctx, owner.Team)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, sentinel.ErrNotFound) {
			return p, nil
		}
		return nil, translate(err)
	}
	shared, err := s.profiles.FindByID(ctx, sharedID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return p, nil
		}
		return nil, translate(err)
	}
	return overlayShared(p, shared), nil
}

// Card is the public card payload: the effective profile plus its entries.
type Card struct {
	Profile  *Profile           `json:"profile"`
	Username string             `json:"username,omitempty"`
	Links    []*link.Link       `json:"links"`
	Products []*product.Product `json:"products"`
	ViaTag   bool               `json:"viaTag"`
}

// Card resolves an identifier and composes the full public card.
func (s *Service) Card(ctx context.Context, identifier string, principal domain.UserID) (*Card, error) {
	res, err := s.Resolve(ctx, identifier, principal)
	if err != nil {
		return nil, err
	}
	effective, err := s.Effective(ctx, res.Profile)
	if err != nil {
		return nil, err
	}

	card := &Card{Profile: effective, ViaTag: res.ViaTag}
	if !effective.User.IsNil() {
		owner, err := s.users.FindByID(ctx, effective.User)
		if err != nil {
			return nil, translate(err)
		}
		card.Username = owner.Username
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		card.Links, err = s.links.ListByProfile(gctx, effective.ID)
		return err
	})
	g.Go(func() error {
		var err error
		card.Products, err = s.products.ListByProfile(gctx, effective.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}
	return card, nil
}

// Input carries the display fields accepted at creation.
type Input struct {
	Title      string `json:"title"`
	Name       string `json:"name"`
	Bio        string `json:"bio"`
	ThemeColor string `json:"themeColor"`
	Location   string `json:"location"`
	JobTitle   string `json:"jobTitle"`
	Company    string `json:"company"`
	Image      string `json:"image"`
	Cover      string `json:"cover"`
	Logo       string `json:"logo"`
	Category   string `json:"category"`
}

func (s *Service) Create(ctx context.Context, ownerID domain.UserID, in Input) (*Profile, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "authentication required")
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, translate(err)
	}
	p := New(domain.NewProfileID(), ownerID, requestcontext.Now(ctx))
	applyInput(p, in)
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CreateShared provisions an ownerless profile for a team. Runs inside the
// caller's ambient transaction when one is present.
func (s *Service) CreateShared(ctx context.Context) (domain.ProfileID, error) {
	p := NewShared(domain.NewProfileID(), requestcontext.Now(ctx))
	if err := s.profiles.Create(ctx, p); err != nil {
		return domain.ProfileID{}, translate(err)
	}
	return p.ID, nil
}

func applyInput(p *Profile, in Input) {
	if in.Title != "" {
		p.Title = in.Title
	}
	p.Name = in.Name
	p.Bio = in.Bio
	p.ThemeColor = in.ThemeColor
	p.Location = in.Location
	p.JobTitle = in.JobTitle
	p.Company = in.Company
	p.Image = in.Image
	p.Cover = in.Cover
	p.Logo = in.Logo
	p.Category = in.Category
}

func (s *Service) Get(ctx context.Context, id domain.ProfileID) (*Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *Service) ListByUser(ctx context.Context, userID domain.UserID) ([]*Profile, error) {
	out, err := s.profiles.ListByUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Update carries optional display field changes; nil means "leave unchanged".
// Views and taps cannot be set through here.
type Update struct {
	Title       *string        `json:"title"`
	Name        *string        `json:"name"`
	Bio         *string        `json:"bio"`
	ThemeColor  *string        `json:"themeColor"`
	Location    *string        `json:"location"`
	JobTitle    *string        `json:"jobTitle"`
	Company     *string        `json:"company"`
	Image       *string        `json:"image"`
	Cover       *string        `json:"cover"`
	Logo        *string        `json:"logo"`
	Category    *string        `json:"category"`
	LeadCapture *bool          `json:"leadCapture"`
	DirectOn    *bool          `json:"directOn"`
	Direct      *domain.LinkID `json:"direct"`
}

func (s *Service) Update(ctx context.Context, id domain.ProfileID, upd Update) (*Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	applyUpdate(p, upd)
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func applyUpdate(p *Profile, upd Update) {
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.ThemeColor != nil {
		p.ThemeColor = *upd.ThemeColor
	}
	if upd.Location != nil {
		p.Location = *upd.Location
	}
	if upd.JobTitle != nil {
		p.JobTitle = *upd.JobTitle
	}
	if upd.Company != nil {
		p.Company = *upd.Company
	}
	if upd.Image != nil {
		p.Image = *upd.Image
	}
	if upd.Cover != nil {
		p.Cover = *upd.Cover
	}
	if upd.Logo != nil {
		p.Logo = *upd.Logo
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.LeadCapture != nil {
		p.LeadCapture = *upd.LeadCapture
	}
	if upd.DirectOn != nil {
		p.DirectOn = *upd.DirectOn
	}
	if upd.Direct != nil {
		p.Direct = *upd.Direct
	}
}

// ProfileOwner reports who owns the profile; nil for shared profiles.
func (s *Service) ProfileOwner(ctx context.Context, id domain.ProfileID) (domain.UserID, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return domain.UserID{}, translate(err)
	}
	return p.User, nil
}

// Delete removes the profile and every dependent row. A profile that is its
// owner's live profile cannot be deleted; switch live first.
func (s *Service) Delete(ctx context.Context, id domain.ProfileID) error {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if !p.User.IsNil() {
		owner, err := s.users.FindByID(ctx, p.User)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return translate(err)
		}
		if err == nil && owner.Live == id {
			return dErrors.New(dErrors.CodePreconditionFailed, "cannot delete the live profile")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range s.dependents {
		g.Go(func() error { return dep.DeleteByProfile(gctx, id) })
	}
	if err := g.Wait(); err != nil {
		return translate(err)
	}

	if err := s.profiles.Delete(ctx, id); err != nil {
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
		return dErrors.Wrap(err, dErrors.CodeNotFound, "profile not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting profile record")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile store failure")
	}
}
