package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	httpapi "github.com/astromitra/horoscope-engine/internal/api/http"
	"github.com/astromitra/horoscope-engine/internal/astro"
	"github.com/astromitra/horoscope-engine/internal/astro/providers"
	"github.com/astromitra/horoscope-engine/internal/cache"
	"github.com/astromitra/horoscope-engine/internal/config"
	"github.com/astromitra/horoscope-engine/internal/geocode"
	"github.com/astromitra/horoscope-engine/internal/logging"
	"github.com/astromitra/horoscope-engine/internal/metrics"
	"github.com/astromitra/horoscope-engine/internal/ratelimit"
	"github.com/astromitra/horoscope-engine/internal/scheduler"
	"github.com/astromitra/horoscope-engine/internal/store"
	"github.com/astromitra/horoscope-engine/internal/timeres"
)

// sessionBackend is what main needs from a session store: persistence plus
// a health probe.
type sessionBackend interface {
	astro.SessionStore
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", "console")
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.OutboundTimeout,
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// Session store: Postgres when a DSN is configured, memory otherwise.
	var sessions sessionBackend
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(context.Background(), cfg.PostgresDSN, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect session store")
		}
		defer pg.Close()
		sessions = pg
	} else {
		logger.Info().Msg("no POSTGRES_DSN configured; using in-memory session store")
		sessions = store.NewMemoryStore()
	}

	// Geocoding with a read-through TTL cache.
	locCache := cache.New(cfg.GeocodeCacheTTL)
	backends := map[geocode.Provider]geocode.Backend{
		geocode.ProviderOSM: geocode.NewNominatim(httpClient),
	}
	if cfg.GoogleAPIKey != "" {
		backends[geocode.ProviderGoogle] = geocode.NewGoogle(cfg.GoogleAPIKey)
	}
	locations, err := geocode.NewResolver(backends, cfg.GeocodeProvider, locCache, collector, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build geocoding resolver")
	}

	provider := providers.NewVedAstro(httpClient, cfg.ProviderBaseURL, cfg.ProviderToken)

	// One limiter instance serializes provider access process-wide.
	limiter := ratelimit.New(cfg.ProviderMinSpacing)

	orch := astro.NewOrchestrator(
		locations,
		timeres.New(),
		provider,
		limiter,
		sessions,
		collector,
		logger,
		cfg.CallTimeout,
	)

	// Periodic geocode-cache eviction.
	sched := scheduler.New(locCache, cfg.CacheEvictInterval, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "horoscope-engine",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	httpapi.RegisterRoutes(app, orch, sessions, httpapi.Probes{
		"provider":  provider,
		"database":  sessions,
		"geocoding": locations,
	})

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
