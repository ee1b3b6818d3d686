package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/welldanyogia/brochure-contact-backend/internal/metrics"
	"github.com/welldanyogia/brochure-contact-backend/internal/models"
	"github.com/welldanyogia/brochure-contact-backend/internal/repository"
)

// Notifier schedules the admin notification for an accepted submission.
// Notify never blocks and never fails.
type Notifier interface {
	Notify(submission models.Submission)
}

// DispatcherConfig holds configuration for the notification dispatcher
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher fans new submissions out to every active admin by email in the background.
type Dispatcher struct {
	admins   repository.AdminRepository
	mailer   Mailer
	renderer *NotificationRenderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	config   DispatcherConfig

	jobs    chan models.Submission
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher creates a Dispatcher. Call Start before Notify has any effect
// beyond queueing.
func NewDispatcher(admins repository.AdminRepository, mailer Mailer, renderer *NotificationRenderer, m *metrics.Metrics, logger *slog.Logger, config DispatcherConfig) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 30 * time.Second
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		admins:   admins,
		mailer:   mailer,
		renderer: renderer,
		metrics:  m,
		logger:   logger,
		config:   config,
		jobs:     make(chan models.Submission, config.QueueSize),
	}
}

// Notify enqueues submission. When the queue is full or the dispatcher is
// stopped the job is dropped and logged.
func (d *Dispatcher) Notify(submission models.Submission) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(submission, "dispatcher stopped")
		return
	}

	select {
	case d.jobs <- submission:
	default:
		d.drop(submission, "queue full")
	}
}

func (d *Dispatcher) drop(submission models.Submission, reason string) {
	d.metrics.NotificationsDropped.Inc()
	d.logger.Warn("notification dropped",
		slog.Uint64("submission_id", uint64(submission.ID)),
		slog.String("reason", reason),
	)
}

// Start launches the workers. ctx bounds every send made by the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.logger.Info("notification dispatcher started", slog.Int("workers", d.config.Workers))
}

// Stop refuses new jobs and waits for queued ones to drain until ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("notification dispatcher stopped before the queue drained", slog.Int("pending", len(d.jobs)))
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for submission := range d.jobs {
		d.deliver(ctx, submission)
	}
}

// deliver sends one notification per active admin. Failures are logged and
// counted, never retried.
func (d *Dispatcher) deliver(ctx context.Context, submission models.Submission) {
	start := time.Now()
	defer func() {
		d.metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	}()

	log := d.logger.With(slog.Uint64("submission_id", uint64(submission.ID)))

	admins, err := d.admins.ListActive(ctx)
	if err != nil {
		d.metrics.NotificationFailures.Inc()
		log.Error("failed to load admins for notification", slog.String("error", err.Error()))
		return
	}
	if len(admins) == 0 {
		log.Warn("no active admins to notify")
		return
	}

	msg, err := d.renderer.Render(&submission)
	if err != nil {
		d.metrics.NotificationFailures.Inc()
		log.Error("failed to render notification", slog.String("error", err.Error()))
		return
	}

	for _, admin := range admins {
		sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
		err := d.mailer.Send(sendCtx, admin.Email, msg)
		cancel()
		if err != nil {
			d.metrics.NotificationFailures.Inc()
			log.Error("failed to send notification",
				slog.Uint64("admin_id", uint64(admin.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.metrics.NotificationsSent.Inc()
	}
}
