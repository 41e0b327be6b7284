package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"booktracker/internal/auth"
	"booktracker/internal/catalog"
	"booktracker/internal/config"
	"booktracker/internal/database"
	"booktracker/internal/database/migration"
	handlers "booktracker/internal/http/handler"
	"booktracker/internal/http/middleware"
	"booktracker/internal/live"
	"booktracker/internal/logger"
	"booktracker/internal/metrics"
	"booktracker/internal/otel"
	"booktracker/internal/repository/postgres"
	"booktracker/internal/service"
	"booktracker/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Booktracker API
// @version 1.0
// @description Personal reading tracker: books, progress, ratings, journals and live updates.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.Location())
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return err
	}

	domainMetrics, err := metrics.NewDomain(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	cat, err := catalog.New(cfg.Catalog, log, catalog.WithRequestCounter(domainMetrics.CatalogRequests))
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.Auth)
	if err != nil {
		return err
	}

	// Initialize repositories and services
	bookRepo := postgres.NewBookPostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	bookSvc := service.NewBookService(objStore, bookRepo, cat, domainMetrics, log)
	authSvc := service.NewAuthService(userRepo, issuer, auth.NewGoogleVerifier(cfg.Auth.GoogleClientID))

	hub := live.NewHub(bookRepo, log, domainMetrics.LiveSubscribers, cfg.Live.Heartbeat)
	listener := live.NewListener(func(ctx context.Context) (*pgx.Conn, error) {
		return database.NewListenerConn(ctx, cfg.Database)
	}, migration.NotifyChannel, hub, log, cfg.Live.ReconnectDelay)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(middleware.Recover())
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.RateLimit(cfg.RateLimitMax, time.Minute))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", handlers.Swagger(cfg.AppHost))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:            db,
		Books:         bookSvc,
		Auth:          authSvc,
		Catalog:       cat,
		Hub:           hub,
		Tokens:        issuer,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return listener.Run(gctx)
	})
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("server starting", slog.String("addr", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
