package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Resolutions  *prometheus.CounterVec
	ProfileViews *prometheus.CounterVec
	ProfileTaps  prometheus.Counter
	LeadsCreated prometheus.Counter
	LeadsRemoved prometheus.Counter
	TeamsCreated prometheus.Counter
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardlink_profile_resolutions_total",
			Help: "Profile resolutions by lookup path (profile, user, tag) and outcome",
		}, []string{"path", "outcome"}),
		ProfileViews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardlink_profile_views_total",
			Help: "Profile view increments by viewer device class",
		}, []string{"device"}),
		ProfileTaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardlink_profile_taps_total",
			Help: "Profile tap increments (tag-indirected resolutions)",
		}),
		LeadsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardlink_leads_created_total",
			Help: "Connections created (forward and reciprocal)",
		}),
		LeadsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardlink_leads_removed_total",
			Help: "Connections removed by toggle-off",
		}),
		TeamsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardlink_teams_created_total",
			Help: "Teams created",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardlink_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}
