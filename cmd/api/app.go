package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/frontdesk/internal/config"
	"github.com/jwalitptl/frontdesk/internal/handler"
	appointmenthandler "github.com/jwalitptl/frontdesk/internal/handler/appointment"
	consultationhandler "github.com/jwalitptl/frontdesk/internal/handler/consultation"
	"github.com/jwalitptl/frontdesk/internal/handler/health"
	patienthandler "github.com/jwalitptl/frontdesk/internal/handler/patient"
	"github.com/jwalitptl/frontdesk/internal/repository"
	"github.com/jwalitptl/frontdesk/internal/repository/memory"
	"github.com/jwalitptl/frontdesk/internal/repository/postgres"
	"github.com/jwalitptl/frontdesk/internal/router"
	appointmentservice "github.com/jwalitptl/frontdesk/internal/service/appointment"
	consultationservice "github.com/jwalitptl/frontdesk/internal/service/consultation"
	patientservice "github.com/jwalitptl/frontdesk/internal/service/patient"
	"github.com/jwalitptl/frontdesk/internal/session"
	"github.com/jwalitptl/frontdesk/pkg/metrics"
	"github.com/jwalitptl/frontdesk/web"
)

// app is the wired server and what must be released with it.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("failed to release resource")
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config, migrate bool) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("frontdesk", reg)

	store, err := newStore(ctx, cfg, m, migrate, a)
	if err != nil {
		return nil, err
	}

	flashes, checks, err := newFlashStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	checks["store"] = store

	tmpl, err := web.Templates(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	patientSvc := patientservice.NewService(store, patientservice.WithMetrics(m))
	appointmentSvc := appointmentservice.NewService(store,
		appointmentservice.WithLocation(loc),
		appointmentservice.WithMetrics(m),
	)
	consultationSvc := consultationservice.NewService(store, consultationservice.WithMetrics(m))

	base := handler.NewBaseHandler(flashes)
	routerCfg := router.RouterConfig{
		Templates:      tmpl,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		SessionCookie:  cfg.Session.CookieName,
		SecureCookie:   cfg.Session.Secure,
		Metrics:        m,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerCfg.RateBurst = cfg.RateLimit.Burst
	}
	if cfg.Monitoring.PrometheusEnabled {
		routerCfg.Gatherer = reg
		routerCfg.MetricsPath = cfg.Monitoring.MetricsPath
	}

	r := router.NewRouter(routerCfg,
		base,
		health.NewHandler(checks),
		patienthandler.NewHandler(patientSvc, base),
		appointmenthandler.NewHandler(appointmentSvc, base),
		consultationhandler.NewHandler(consultationSvc, base),
	)
	r.Setup()

	a.handler = r.Engine()
	ok = true
	return a, nil
}

func newStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics, migrate bool, a *app) (repository.Store, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using the in-memory store; records are lost on exit")
		return memory.NewStore(memory.WithMetrics(m)), nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if migrate {
		n, err := postgres.NewMigrator(db).Up(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Int("applied", n).Msg("migrations complete")
	}
	return postgres.NewStore(db, postgres.WithMetrics(m)), nil
}

func newFlashStore(ctx context.Context, cfg *config.Config, a *app) (session.Store, map[string]health.Pinger, error) {
	checks := map[string]health.Pinger{}
	if cfg.Session.Driver != "redis" {
		return session.NewMemoryStore(cfg.Session.FlashTTL), checks, nil
	}

	rs, err := session.NewRedisStore(ctx, cfg.Redis, cfg.Session.FlashTTL)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, rs.Close)
	checks["flash"] = rs
	return rs, checks, nil
}
