package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/config"
	"github.com/odonto/odonto/internal/domain/anamnesis"
	"github.com/odonto/odonto/internal/domain/annotation"
	"github.com/odonto/odonto/internal/domain/appointment"
	"github.com/odonto/odonto/internal/domain/attachment"
	"github.com/odonto/odonto/internal/domain/budget"
	"github.com/odonto/odonto/internal/domain/chatbot"
	"github.com/odonto/odonto/internal/domain/empresa"
	"github.com/odonto/odonto/internal/domain/evaluation"
	"github.com/odonto/odonto/internal/domain/followup"
	"github.com/odonto/odonto/internal/domain/notification"
	"github.com/odonto/odonto/internal/domain/patient"
	"github.com/odonto/odonto/internal/domain/payment"
	"github.com/odonto/odonto/internal/domain/procedure"
	"github.com/odonto/odonto/internal/domain/report"
	"github.com/odonto/odonto/internal/domain/subscription"
	"github.com/odonto/odonto/internal/domain/treatmentplan"
	"github.com/odonto/odonto/internal/domain/usuario"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/blobstore"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/middleware"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/webhook"
)

const version = "0.1.0"

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	cache, closeCache, err := newPrincipalCache(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeCache()

	store, err := newBlobStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open file storage")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewHTTPMetrics(reg)

	e := newEcho(cfg, logger, metrics)
	app := buildApp(cfg, pool, cache, store, logger)

	resolver := auth.NewResolver(app.usuarios, app.tokens, cache, auth.ResolverConfig{
		DevTokens:   cfg.DevTokensActive(),
		DefaultRole: cfg.DefaultRole,
	}, logger)
	if cfg.DevTokensActive() {
		logger.Warn().Msg("dev tokens enabled: dev:<empresa_id> bearer tokens are accepted without verification")
	}
	e.Use(auth.Middleware(resolver, auth.AuthSkipper))
	e.Use(db.TenantSession(pool, logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	app.register(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newLogger writes JSON logs, or colored console logs in development.
func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "odonto").Logger()
}

func newEcho(cfg *config.Config, logger zerolog.Logger, metrics *middleware.HTTPMetrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		HSTS:             cfg.IsProduction(),
		DownloadSuffixes: middleware.DefaultDownloadSuffixes,
	}))
	e.Use(metrics.Middleware())
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", blobstore.MaxFileSize>>20+1)))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	return e
}

// newPrincipalCache uses Redis when REDIS_URL is set so that usuario
// updates invalidate every replica.
func newPrincipalCache(ctx context.Context, cfg *config.Config) (auth.PrincipalCache, func(), error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryCache(cfg.PrincipalCacheTTL), func() {}, nil
	}
	rc, err := auth.NewRedisCache(ctx, cfg.RedisURL, cfg.PrincipalCacheTTL)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { _ = rc.Close() }, nil
}

// newBlobStore keeps files in memory when STORAGE_DIR is empty.
func newBlobStore(cfg *config.Config) (blobstore.Store, error) {
	if cfg.StorageDir == "" {
		return blobstore.NewMemoryStore(cfg.StoragePublicURL), nil
	}
	return blobstore.NewDiskStore(cfg.StorageDir, cfg.StoragePublicURL)
}

type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

type app struct {
	usuarios *usuario.Service
	tokens   *auth.JWTManager
	handlers []routeRegistrar
	chatbot  *chatbot.Handler
}

// buildApp wires repositories, services and handlers. Services depend on
// each other only through the small interfaces their packages declare.
func buildApp(cfg *config.Config, pool *pgxpool.Pool, cache auth.PrincipalCache, store blobstore.Store, logger zerolog.Logger) *app {
	tx := db.NewTxRunner(pool)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL())

	empresas := empresa.NewService(empresa.NewRepo(pool))
	usuarios := usuario.NewService(usuario.NewRepo(pool), empresas, tx, cache, logger.With().Str("component", "usuario").Logger())
	patients := patient.NewService(patient.NewRepo(pool), tx)
	procedures := procedure.NewService(procedure.NewRepo(pool), tx)
	notifications := notification.NewService(notification.NewRepo(pool), patients, templates.NewEngine(), tx)

	appointments := appointment.NewService(appointment.NewRepo(pool), patients, procedures, notifications, tx,
		logger.With().Str("component", "appointment").Logger())
	budgets := budget.NewService(budget.NewRepo(pool), patients, appointments, procedures, notifications, tx,
		logger.With().Str("component", "budget").Logger())
	payments := payment.NewService(payment.NewRepo(pool), patients, budgets, notifications, tx,
		logger.With().Str("component", "payment").Logger())
	followups := followup.NewService(followup.NewRepo(pool), patients, appointments, notifications, tx,
		logger.With().Str("component", "followup").Logger())
	plans := treatmentplan.NewService(treatmentplan.NewRepo(pool), patients, procedures, budgets, notifications, tx,
		logger.With().Str("component", "treatmentplan").Logger())
	attachments := attachment.NewService(attachment.NewRepo(pool), patients, store, tx,
		logger.With().Str("component", "attachment").Logger())
	reports := report.NewService(report.NewRepo(pool), procedures, cfg.ReportWorkdayMinutes,
		logger.With().Str("component", "report").Logger())
	subscriptions := subscription.NewService(subscription.NewRepo(pool), tx,
		logger.With().Str("component", "subscription").Logger())
	bot := chatbot.NewService(chatbot.NewRepo(pool), patients, webhook.NewClient(),
		chatbot.Defaults{WebhookURL: cfg.ChatbotWebhookURL, WebhookSecret: cfg.ChatbotWebhookSecret},
		logger.With().Str("component", "chatbot").Logger())
	botHandler := chatbot.NewHandler(bot)

	return &app{
		usuarios: usuarios,
		tokens:   tokens,
		chatbot:  botHandler,
		handlers: []routeRegistrar{
			auth.NewHandler(usuarios, tokens),
			empresa.NewHandler(empresas),
			usuario.NewHandler(usuarios),
			patient.NewHandler(patients),
			procedure.NewHandler(procedures),
			appointment.NewHandler(appointments),
			budget.NewHandler(budgets),
			anamnesis.NewHandler(anamnesis.NewService(anamnesis.NewRepo(pool), patients, tx)),
			annotation.NewHandler(annotation.NewService(annotation.NewRepo(pool), patients, tx)),
			evaluation.NewHandler(evaluation.NewService(evaluation.NewRepo(pool), patients, tx)),
			attachment.NewHandler(attachments),
			notification.NewHandler(notifications),
			payment.NewHandler(payments),
			followup.NewHandler(followups),
			treatmentplan.NewHandler(plans),
			report.NewHandler(reports),
			subscription.NewHandler(subscriptions),
			botHandler,
		},
	}
}

func (a *app) register(api *echo.Group) {
	for _, h := range a.handlers {
		h.RegisterRoutes(api)
	}
	a.chatbot.RegisterWebhook(api)
}
