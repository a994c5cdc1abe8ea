// Package httptransport is the thin HTTP layer: chi routing, middleware
// chains, and handlers that delegate to domain services without embedding
// business logic.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"cardlink/internal/platform/metrics"
	"cardlink/internal/platform/middleware"
)

// Deps collects everything the router needs. Nil Redis disables rate
// limiting; nil HealthChecks entries are skipped.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.JWTValidator

	Redis          *redis.Client
	CardRateLimit  int
	CardRateWindow time.Duration

	Cards    CardService
	Profiles ProfileService
	Users    UserService
	Live     LiveSwitcher
	Leads    LeadService
	Teams    TeamService
	Tags     TagService
	Links    LinkService
	Products ProductService
	Authz    Authorizer

	HealthChecks map[string]func(context.Context) error
}

func NewRouter(d Deps) http.Handler {
	card := &cardHandler{cards: d.Cards}
	profiles := &profileHandler{profiles: d.Profiles, users: d.Live, authz: d.Authz}
	users := &userHandler{users: d.Users, authz: d.Authz}
	leads := &leadHandler{leads: d.Leads}
	teams := &teamHandler{teams: d.Teams, authz: d.Authz}
	tags := &tagHandler{tags: d.Tags}
	links := &linkHandler{links: d.Links, profiles: d.Profiles, authz: d.Authz}
	products := &productHandler{products: d.Products, profiles: d.Profiles, authz: d.Authz}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(middleware.Device)

	// Public card route: anonymous viewers allowed, per-IP rate limited.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(d.Validator))
		r.Use(middleware.RateLimit(d.Redis, d.CardRateLimit, d.CardRateWindow, d.Logger))
		r.Get("/card/{identifier}", card.handleCard)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", profiles.handleCreate)
			r.Get("/", profiles.handleList)
			r.Get("/{id}", profiles.handleGet)
			r.Patch("/{id}", profiles.handleUpdate)
			r.Delete("/{id}", profiles.handleDelete)
			r.Post("/{id}/live", profiles.handleSetLive)
			r.Post("/{id}/links", links.handleCreate)
			r.Get("/{id}/links", links.handleList)
			r.Post("/{id}/products", products.handleCreate)
			r.Get("/{id}/products", products.handleList)
		})

		r.Route("/links", func(r chi.Router) {
			r.Patch("/{id}", links.handleUpdate)
			r.Delete("/{id}", links.handleDelete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Patch("/{id}", products.handleUpdate)
			r.Delete("/{id}", products.handleDelete)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Post("/toggle", leads.handleToggle)
			r.Get("/", leads.handleList)
			r.Get("/{id}", leads.handleGet)
			r.Patch("/{id}", leads.handleUpdate)
			r.Delete("/{id}", leads.handleDelete)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teams.handleCreate)
			r.Post("/join", teams.handleJoin)
			r.Post("/leave", teams.handleLeave)
			r.Get("/{id}", teams.handleGet)
			r.Delete("/{id}", teams.handleDelete)
			r.Post("/{id}/invites", teams.handleInvite)
			r.Post("/{id}/members", teams.handleCreateMember)
			r.Delete("/{id}/members/{userID}", teams.handleRemoveMember)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Post("/", tags.handleProvision)
			r.Get("/{id}", tags.handleGet)
			r.Post("/{id}/activate", tags.handleActivate)
			r.Post("/{id}/unlink", tags.handleUnlink)
			r.Delete("/{id}", tags.handleDelete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", users.handleCreate)
			r.Get("/{id}", users.handleGet)
			r.Patch("/{id}", users.handleUpdate)
		})
	})

	r.Get("/healthz", healthz(d.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func healthz(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failures := map[string]string{}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				failures[name] = err.Error()
			}
		}
		if len(failures) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failures": failures})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
