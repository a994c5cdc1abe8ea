package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cardlink/internal/lead"
	"cardlink/internal/link"
	"cardlink/internal/platform/config"
	"cardlink/internal/platform/events"
	"cardlink/internal/platform/httpserver"
	"cardlink/internal/platform/logger"
	"cardlink/internal/platform/metrics"
	"cardlink/internal/platform/postgres"
	"cardlink/internal/platform/redis"
	"cardlink/internal/platform/token"
	"cardlink/internal/policy"
	"cardlink/internal/product"
	"cardlink/internal/profile"
	"cardlink/internal/tag"
	"cardlink/internal/team"
	httptransport "cardlink/internal/transport/http"
	"cardlink/internal/user"
	"cardlink/pkg/platform/tx"
)

// main wires the dependency graph and keeps the server lifecycle small.
// Business logic lives in the internal feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		userStore    user.Store
		profileStore profile.Store
		tagStore     tag.Store
		linkStore    link.Store
		productStore product.Store
		leadStore    lead.Store
		teamStore    team.Store
		runner       tx.Runner = tx.NopRunner{}
		healthChecks           = map[string]func(context.Context) error{}
	)

	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		userStore = user.NewPostgres(db)
		profileStore = profile.NewPostgres(db)
		tagStore = tag.NewPostgres(db)
		linkStore = link.NewPostgres(db)
		productStore = product.NewPostgres(db)
		leadStore = lead.NewPostgres(db)
		teamStore = team.NewPostgres(db)
		runner = tx.NewSQLRunner(db)
		healthChecks["postgres"] = db.PingContext
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		userStore = user.NewInMemory()
		profileStore = profile.NewInMemory()
		tagStore = tag.NewInMemory()
		linkStore = link.NewInMemory()
		productStore = product.NewInMemory()
		leadStore = lead.NewInMemory()
		teamStore = team.NewInMemory()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var limiter *goredis.Client
	if redisClient != nil {
		defer redisClient.Close()
		limiter = redisClient.Client
		healthChecks["redis"] = redisClient.Health
	}

	var publisher events.Publisher = events.Nop{}
	if kafka, err := events.NewKafka(cfg.Kafka, log); err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	} else if kafka != nil {
		defer kafka.Close()
		publisher = kafka
	}

	tokens := token.NewService(cfg.JWTSigningKey, "cardlink")

	linkSvc := link.NewService(linkStore)
	productSvc := product.NewService(productStore)

	profileSvc := profile.NewService(profile.Deps{
		Profiles:   profileStore,
		Users:      userStore,
		Tags:       tagStore,
		Links:      linkStore,
		Products:   productStore,
		Dependents: []profile.Dependent{linkStore, productStore, leadStore},
		Events:     publisher,
		Metrics:    m,
		Logger:     log,
	})
	userSvc := user.NewService(userStore, profileSvc)
	leadSvc := lead.NewService(leadStore, userStore, profileSvc, publisher, m, log)
	tagSvc := tag.NewService(tagStore, publisher, log)
	teamSvc := team.NewService(team.Deps{
		Teams:        teamStore,
		Directory:    userSvc,
		Members:      userSvc,
		Profiles:     profileSvc,
		Purge:        profileSvc,
		Entitlements: team.NopEntitlements{},
		Inviter:      team.LogInviter{Logger: log},
		Runner:       runner,
		Events:       publisher,
		Metrics:      m,
		Logger:       log,
	})
	profileSvc.SetTeams(teamSvc)
	authz := policy.NewAuthorizer(userStore, teamStore)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		Validator:      tokens,
		Redis:          limiter,
		CardRateLimit:  cfg.CardRateLimit,
		CardRateWindow: cfg.CardRateWindow,
		Cards:          profileSvc,
		Profiles:       profileSvc,
		Users:          userSvc,
		Live:           userSvc,
		Leads:          leadSvc,
		Teams:          teamSvc,
		Tags:           tagSvc,
		Links:          linkSvc,
		Products:       productSvc,
		Authz:          authz,
		HealthChecks:   healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting cardlink", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
