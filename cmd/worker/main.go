package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propcare_backend/internal/contractors"
	"propcare_backend/internal/directory"
	"propcare_backend/internal/email"
	"propcare_backend/internal/notify"
	"propcare_backend/internal/scheduler"
	"propcare_backend/internal/sms"
	"propcare_backend/internal/whatsapp"
	workflowrepo "propcare_backend/internal/workflow/repository"
	"propcare_backend/platform/config"
	"propcare_backend/platform/db"
	"propcare_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting notification worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var limiterClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			panic("invalid REDIS_URL: " + err.Error())
		}
		limiterClient = redis.NewClient(opt)
		defer limiterClient.Close()
	}

	// Channel senders. A nil gateway client drops its channel's sends; the
	// dispatch pipeline skips channels without a registered notifier.
	var notifiers []notify.Notifier
	if whatsappClient := whatsapp.NewClient(cfg, log); whatsappClient != nil {
		notifiers = append(notifiers, notify.NewWhatsAppNotifier(whatsappClient))
	}
	if smsClient := sms.NewClient(cfg, log); smsClient != nil {
		notifiers = append(notifiers, notify.NewSMSNotifier(smsClient))
	}
	if emailSender := email.NewSender(cfg, log); emailSender != nil {
		notifiers = append(notifiers, notify.NewEmailNotifier(emailSender))
	}
	if len(notifiers) == 0 {
		log.Warn("no notification channels configured; deliveries will be recorded as unsent")
	}

	sender := notify.NewService(notifiers, notify.NewRecipientLimiter(limiterClient), log)
	router := notify.NewRouter(cfg)

	contractorRepo := contractors.New(pool)
	processor := notify.NewProcessor(
		workflowrepo.New(pool),
		directory.New(pool),
		contractorRepo,
		contractors.NewMatcher(contractorRepo),
		router,
		sender,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, processor, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

	return errors.New(name + ": " + lastErr.Error())
}
