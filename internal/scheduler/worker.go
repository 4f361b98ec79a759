package scheduler

import (
	"context"
	"fmt"

	"propcare_backend/internal/notify"
	"propcare_backend/platform/config"
	"propcare_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes queued tasks and runs the notification processor.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor *notify.Processor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor *notify.Processor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		log:       log,
	}

	mux.HandleFunc(TaskNotifyWorkflowEvent, w.handleNotifyWorkflowEvent)

	return w, nil
}

func (w *Worker) handleNotifyWorkflowEvent(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotifyWorkflowEventPayload(task)
	if err != nil {
		return err
	}

	eventID, err := uuid.Parse(payload.EventID)
	if err != nil {
		return err
	}

	ticketID, err := uuid.Parse(payload.TicketID)
	if err != nil {
		return err
	}

	return w.processor.Process(ctx, eventID, ticketID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
