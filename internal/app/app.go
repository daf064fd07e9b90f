package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/reviewpulse/pkg/database"
	"github.com/utafrali/reviewpulse/pkg/health"
	"github.com/utafrali/reviewpulse/pkg/httpclient"
	pkgkafka "github.com/utafrali/reviewpulse/pkg/kafka"

	"github.com/utafrali/reviewpulse/internal/client/llm"
	"github.com/utafrali/reviewpulse/internal/client/monitoring"
	"github.com/utafrali/reviewpulse/internal/client/store"
	"github.com/utafrali/reviewpulse/internal/config"
	"github.com/utafrali/reviewpulse/internal/event"
	handler "github.com/utafrali/reviewpulse/internal/handler/http"
	"github.com/utafrali/reviewpulse/internal/repository/postgres"
	"github.com/utafrali/reviewpulse/internal/service"
	"github.com/utafrali/reviewpulse/migrations"
)

// App wires together all dependencies and runs the review service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "reviews")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer when brokers are configured.
	var producer *pkgkafka.Producer
	var eventProducer service.EventPublisher
	if cfg.EventsEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Outbound clients. The store and categorization APIs sit behind circuit
	// breakers; the monitoring gateway is best-effort and does not need one.
	storeHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:         cfg.StoreClientTimeout,
			MaxConnsPerHost: 20,
		}),
		httpclient.DefaultCircuitBreakerConfig("rustore"),
		logger,
	)
	llmHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:         cfg.LLMClientTimeout,
			MaxConnsPerHost: 5,
		}),
		httpclient.DefaultCircuitBreakerConfig("llm"),
		logger,
	)
	metricsHTTP := httpclient.New(httpclient.Config{
		Timeout:         cfg.MetricsClientTimeout,
		MaxConnsPerHost: 10,
	})

	registry := store.NewRegistry(
		store.NewRuStoreClient(store.RuStoreConfig{
			BaseURL:      cfg.RuStoreAPIURL,
			ClientID:     cfg.RuStoreClientID,
			ClientSecret: cfg.RuStoreClientSecret,
		}, storeHTTP, logger),
	)
	classifier := llm.NewClient(llm.Config{
		BaseURL: cfg.LLMAPIURL,
		APIKey:  cfg.LLMAPIKey,
	}, llmHTTP, logger)
	reporter := monitoring.NewReporter(monitoring.Config{
		BaseURL: cfg.MetricsAPIURL,
		APIKey:  cfg.MetricsAPIKey,
	}, metricsHTTP, logger)

	// Build the dependency graph.
	repo := postgres.NewReviewRepository(pool)
	observerService := service.NewObserverService(
		registry,
		repo,
		classifier,
		reporter,
		eventProducer,
		logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	router := handler.NewRouter(observerService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      6 * time.Minute, // pipeline runs can be slow
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain in-flight HTTP requests,
// close the Kafka producer, then close the database pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
