package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/social-pulse/internal/config"
	httpcontroller "github.com/vadim/social-pulse/internal/controller/http"
	"github.com/vadim/social-pulse/internal/database"
	accountdao "github.com/vadim/social-pulse/internal/domain/account/dao"
	accountservice "github.com/vadim/social-pulse/internal/domain/account/service"
	commentdao "github.com/vadim/social-pulse/internal/domain/comment/dao"
	commentservice "github.com/vadim/social-pulse/internal/domain/comment/service"
	demographicsdao "github.com/vadim/social-pulse/internal/domain/demographics/dao"
	demographicsservice "github.com/vadim/social-pulse/internal/domain/demographics/service"
	postdao "github.com/vadim/social-pulse/internal/domain/post/dao"
	postservice "github.com/vadim/social-pulse/internal/domain/post/service"
	storydao "github.com/vadim/social-pulse/internal/domain/story/dao"
	storyservice "github.com/vadim/social-pulse/internal/domain/story/service"
	syncpolicy "github.com/vadim/social-pulse/internal/domain/sync/policy"
	syncscheduler "github.com/vadim/social-pulse/internal/domain/sync/scheduler"
	"github.com/vadim/social-pulse/internal/httpx/upstream/instagram"
	"github.com/vadim/social-pulse/internal/metrics"
	"github.com/vadim/social-pulse/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	pool       *pgxpool.Pool
	collector  *metrics.Collector

	accounts     *accountservice.Service
	posts        *postservice.Service
	comments     *commentservice.Service
	demographics *demographicsservice.Service
	stories      *storyservice.Service
	syncPolicy   *syncpolicy.Policy

	scheduler *syncscheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	collector, err := metrics.NewCollector()
	if err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(collector.InstrumentHandler)

	app := &App{
		cfg:       cfg,
		router:    r,
		logger:    logger,
		collector: collector,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	app.registerRoutes()

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Scheduler.Enabled {
		app.scheduler = syncscheduler.New(app.syncPolicy, cfg.Scheduler.Interval, logger)
	}

	return app, nil
}

// initInfrastructure initializes the database connection and schema
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	a.pool = pool
	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(_ context.Context) error {
	igClient := instagram.New(
		instagram.WithBaseURL(a.cfg.Instagram.BaseURL),
		instagram.WithAPIVersion(a.cfg.Instagram.APIVersion),
	)

	accountRepo := accountdao.NewAccountPostgres(a.pool)
	credentialRepo := accountdao.NewCredentialPostgres(a.pool)
	postRepo := postdao.NewPostPostgres(a.pool)
	commentRepo := commentdao.NewCommentPostgres(a.pool)
	userRepo := commentdao.NewUserPostgres(a.pool)
	demographicsRepo := demographicsdao.NewDemographicsPostgres(a.pool)
	storyRepo := storydao.NewStoryPostgres(a.pool)

	a.accounts = accountservice.New(accountRepo, credentialRepo, a.logger)
	a.comments = commentservice.New(igClient, commentRepo, userRepo, postRepo, a.logger)
	a.posts = postservice.New(igClient, postRepo, accountRepo, a.comments, a.logger)
	a.demographics = demographicsservice.New(igClient, demographicsRepo, a.logger)
	a.stories = storyservice.New(igClient, storyRepo, credentialRepo, a.logger)

	opts := syncpolicy.Options{
		Observer: a.collector,
		MaxPosts: a.cfg.Sync.MaxPosts,
	}
	if a.cfg.S3.Enabled {
		archive, err := storage.NewS3Archive(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
		})
		if err != nil {
			return fmt.Errorf("initializing s3 archive: %w", err)
		}
		opts.Archive = archive
	}

	a.syncPolicy = syncpolicy.New(a.accounts, a.posts, a.demographics, a.stories, a.logger, opts)

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Method(http.MethodGet, "/metrics", a.collector.Handler())

	a.router.Route("/api/v1", func(r chi.Router) {
		httpcontroller.NewAccountHandler(a.accounts).RegisterRoutes(r)
		httpcontroller.NewSyncHandler(a.syncPolicy).RegisterRoutes(r)
		httpcontroller.NewAnalyticsHandler(a.posts, a.comments, a.stories, a.demographics).RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
