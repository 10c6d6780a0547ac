package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
)

var ErrQueueFull = errors.New("webhook queue is full")

// Deliverer makes one delivery attempt.
type Deliverer interface {
	Deliver(ctx context.Context, eventType string, payload []byte) error
}

// Worker delivers queued events and retries failures with exponential
// backoff. The queue lives in memory and is lost on restart.
type Worker struct {
	deliverer   Deliverer
	logger      *slog.Logger
	metrics     *metrics.Manager
	queue       chan *Job
	stopCh      chan struct{}
	stopOnce    sync.Once
	maxAttempts int
	retryBase   time.Duration
	tick        time.Duration

	mu      sync.Mutex
	retries []*Job
}

type WorkerOption func(*Worker)

// WithRetryBase sets the first retry delay; later ones double.
func WithRetryBase(d time.Duration) WorkerOption {
	return func(w *Worker) { w.retryBase = d }
}

// WithPollInterval sets how often due retries are checked.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.tick = d }
}

func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) { w.maxAttempts = n }
}

func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) { w.queue = make(chan *Job, n) }
}

func NewWorker(deliverer Deliverer, logger *slog.Logger, m *metrics.Manager, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		deliverer:   deliverer,
		logger:      logger.With("component", "webhook_worker"),
		metrics:     m,
		queue:       make(chan *Job, 100),
		stopCh:      make(chan struct{}),
		maxAttempts: defaultMaxAttempts,
		retryBase:   time.Second,
		tick:        time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue schedules an event for delivery without blocking.
func (w *Worker) Enqueue(event EventPayload) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	job := &Job{
		ID:          uuid.New(),
		EventType:   event.Type,
		Payload:     payload,
		MaxAttempts: w.maxAttempts,
		CreatedAt:   time.Now(),
	}

	select {
	case w.queue <- job:
		return nil
	default:
		w.metrics.ObserveWebhook("dropped")
		return ErrQueueFull
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	w.logger.Info("webhook worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped", "pending_retries", w.pendingRetries())
			return
		case <-w.stopCh:
			w.logger.Info("webhook worker stopped", "pending_retries", w.pendingRetries())
			return
		case job := <-w.queue:
			w.processJob(ctx, job)
		case <-ticker.C:
			w.processRetries(ctx)
		}
	}
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Worker) processRetries(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var due []*Job
	pending := w.retries[:0]
	for _, job := range w.retries {
		if !job.NextRetryAt.After(now) {
			due = append(due, job)
		} else {
			pending = append(pending, job)
		}
	}
	w.retries = pending
	w.mu.Unlock()

	for _, job := range due {
		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job *Job) {
	job.Attempts++

	if err := w.deliverer.Deliver(ctx, job.EventType, job.Payload); err != nil {
		w.scheduleRetry(job, err.Error())
		return
	}

	w.markComplete(job)
}

func (w *Worker) scheduleRetry(job *Job, errorMsg string) {
	job.LastError = errorMsg

	if job.Attempts >= job.MaxAttempts {
		w.markFailed(job)
		return
	}

	delay := w.retryBase * time.Duration(1<<(job.Attempts-1))
	job.NextRetryAt = time.Now().Add(delay)

	w.mu.Lock()
	w.retries = append(w.retries, job)
	w.mu.Unlock()

	w.metrics.ObserveWebhook("retried")
	w.logger.Info("webhook job scheduled for retry",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"next_retry", job.NextRetryAt,
		"error", errorMsg,
	)
}

func (w *Worker) markComplete(job *Job) {
	w.metrics.ObserveWebhook("delivered")
	w.logger.Info("webhook job completed", "job_id", job.ID, "event", job.EventType, "attempts", job.Attempts)
}

func (w *Worker) markFailed(job *Job) {
	w.metrics.ObserveWebhook("failed")
	w.logger.Warn("webhook job failed",
		"job_id", job.ID,
		"event", job.EventType,
		"attempts", job.Attempts,
		"error", job.LastError,
	)
}

func (w *Worker) pendingRetries() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.retries)
}
