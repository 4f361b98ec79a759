package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propcare_backend/internal/classifier"
	"propcare_backend/internal/directory"
	"propcare_backend/internal/events"
	apphttp "propcare_backend/internal/http"
	"propcare_backend/internal/http/router"
	"propcare_backend/internal/intake"
	"propcare_backend/internal/notify"
	"propcare_backend/internal/scheduler"
	"propcare_backend/internal/session"
	"propcare_backend/internal/workflow"
	"propcare_backend/platform/config"
	"propcare_backend/platform/db"
	"propcare_backend/platform/logger"
	"propcare_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	redisClient := initRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	workflowModule := workflow.NewModule(pool, eventBus, val, log)

	// Directory resolves inbound phone numbers against both populations.
	directorySvc := directory.NewService(directory.New(pool), workflowModule.Contractors())

	// Classifier: external model with deterministic keyword fallback. A
	// missing API key just means every message uses the fallback.
	var external classifier.ExternalClassifier
	if cfg.GeminiAPIKey != "" {
		gemini, err := classifier.NewGeminiClassifier(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize external classifier, using fallback only", "error", err)
		} else {
			external = gemini
		}
	} else {
		log.Warn("GEMINI_API_KEY not configured; classification uses the keyword fallback only")
	}
	classify := classifier.NewAdapter(external, cfg.ClassifierTimeout, log)

	sessions := session.NewStore(redisClient, cfg.SessionTTL)
	dedupe := intake.NewDeduper(redisClient)

	intakeSvc := intake.NewService(directorySvc, sessions, classify, workflowModule.Service(), dedupe, cfg, log)
	intakeModule := intake.NewModule(intake.NewHandler(intakeSvc, val))

	// Notifications leave the process through the background queue; the API
	// only enqueues. Without redis, transitions still commit and audit but
	// nothing is delivered.
	if redisClient != nil {
		queueClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize queue client, notifications disabled", "error", err)
		} else {
			defer queueClient.Close()
			notify.NewDispatcher(queueClient, log).Register(eventBus)
		}
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			workflowModule,
			intakeModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; sessions, dedupe and notifications disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	return redis.NewClient(opt)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
