package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Raimguhinov/linkal/internal/aggregator"
	"github.com/Raimguhinov/linkal/internal/auth"
	"github.com/Raimguhinov/linkal/internal/config"
	"github.com/Raimguhinov/linkal/internal/dav"
	mwlogger "github.com/Raimguhinov/linkal/internal/delivery/http/middleware/logger"
	"github.com/Raimguhinov/linkal/internal/delivery/http/middleware/ratelimit"
	"github.com/Raimguhinov/linkal/internal/metrics"
	"github.com/Raimguhinov/linkal/internal/registry"
	"github.com/Raimguhinov/linkal/internal/upstream"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

// SetupRouter wires the gateway for the given registry. ctx bounds the
// background work of the rate limiter.
func SetupRouter(ctx context.Context, l *logger.Logger, cfg *config.Config, reg *registry.Registry) (http.Handler, error) {
	for _, method := range []string{
		"PROPFIND",
		"PROPPATCH",
		"REPORT",
		"MKCOL",
		"COPY",
		"MOVE",
		"OPTIONS",
	} {
		chi.RegisterMethod(method)
	}

	policy, err := dav.ParseUnknownPolicy(cfg.App.UnknownProps)
	if err != nil {
		return nil, fmt.Errorf("app - SetupRouter: %w", err)
	}
	responseLimit, err := cfg.Upstream.ResponseLimit()
	if err != nil {
		return nil, fmt.Errorf("app - SetupRouter: %w", err)
	}
	bodyLimit, err := cfg.HTTP.BodyLimit()
	if err != nil {
		return nil, fmt.Errorf("app - SetupRouter: %w", err)
	}
	authProvider, err := auth.NewFromURL(cfg.Auth.URL, cfg.Auth.Realm, cfg.Auth.User, cfg.Auth.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("app - SetupRouter - auth.NewFromURL: %w", err)
	}

	up := upstream.New(l,
		upstream.Timeout(cfg.Upstream.Timeout),
		upstream.MaxResponseBytes(responseLimit),
		upstream.UserAgent(cfg.Upstream.UserAgent),
		upstream.BasicAuth(cfg.Upstream.Username, cfg.Upstream.Password),
	)
	catalog := dav.NewCatalog(cfg.App.Principal)
	h := &davHandler{
		synth: dav.NewSynthesizer(catalog, policy),
		agg: aggregator.New(reg, up, catalog, l,
			aggregator.MaxParallel(cfg.Upstream.MaxParallel),
			aggregator.ExportQuery(cfg.Upstream.ExportQuery),
		),
		l:       l,
		maxBody: bodyLimit,
	}

	s := chi.NewRouter()
	s.Use(middleware.RequestID)
	s.Use(middleware.RealIP)
	s.Use(mwlogger.New(l))
	s.Use(middleware.Recoverer)
	if cfg.Metrics.Enabled {
		s.Use(metrics.Middleware())
	}
	if len(cfg.HTTP.CORS.AllowedOrigins) > 0 {
		s.Use(corsMiddleware(cfg.HTTP))
	}
	s.Use(middleware.StripSlashes)

	s.Get("/healthz", healthz)
	if cfg.Metrics.Enabled {
		s.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}
	s.Handle("/.well-known/caldav", http.RedirectHandler("/", http.StatusMovedPermanently))

	// OPTIONS stays public.
	s.Options("/", h.root)
	s.Options("/principals", h.principals)
	s.Options("/principals/{name}", h.principal)
	s.Options("/principals/{name}/{proxy}", h.principal)
	s.Options("/cals", options(true))
	s.Options("/cals/*", options(true))
	s.Options("/*", options(false))

	s.Group(func(r chi.Router) {
		r.Use(authProvider.Middleware())
		if cfg.RateLimit.RPS > 0 {
			limiter := ratelimit.New(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Cleanup)
			r.Use(limiter.Middleware())
		}

		r.Get("/", h.index)
		r.Method("PROPFIND", "/", http.HandlerFunc(h.root))

		for _, method := range []string{"PROPFIND", "REPORT"} {
			r.Method(method, "/principals", http.HandlerFunc(h.principals))
			r.Method(method, "/principals/{name}", http.HandlerFunc(h.principal))
			r.Method(method, "/principals/{name}/{proxy}", http.HandlerFunc(h.principal))

			r.Method(method, "/cals", http.HandlerFunc(h.collection))
			r.Method(method, "/cals/{segment}", http.HandlerFunc(h.resource))
			r.Method(method, "/cals/{segment}/*", http.HandlerFunc(h.resource))
		}

		r.Method("PROPPATCH", "/cals", http.HandlerFunc(h.proppatch))
		r.Method("PROPPATCH", "/cals/{segment}", http.HandlerFunc(h.proppatch))

		r.Get("/cals/{segment}", h.export)
		r.Head("/cals/{segment}", h.export)
		r.Get("/cals/{segment}/*", h.object)
	})

	return s, nil
}
