package river

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// JobObserver records how long jobs take and whether they succeed.
type JobObserver interface {
	ObserveDuration(job string, d time.Duration)
	IncSuccess(job string)
	IncFailure(job string)
}

// Expirer closes overdue quotes and reports how many it closed.
type Expirer interface {
	ExpireOverdueQuotes(ctx context.Context) (int, error)
}

// ExpirerFunc adapts a function to Expirer.
type ExpirerFunc func(ctx context.Context) (int, error)

func (f ExpirerFunc) ExpireOverdueQuotes(ctx context.Context) (int, error) { return f(ctx) }

func observe(o JobObserver, job string, started time.Time, err error) {
	if o == nil {
		return
	}
	o.ObserveDuration(job, time.Since(started))
	if err != nil {
		o.IncFailure(job)
		return
	}
	o.IncSuccess(job)
}

// EventWorker processes quote event jobs from the River queue.
// It records the event in the log; subscribers hang off this point.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	logger   *zap.Logger
	observer JobObserver
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	started := time.Now()
	w.logger.Info("processing quote event",
		zap.String("event_id", job.Args.EventID),
		zap.String("event_type", job.Args.Type),
		zap.String("quote_uuid", job.Args.QuoteUUID),
		zap.String("quote_number", job.Args.QuoteNumber),
		zap.Int64("tenant_id", job.Args.TenantID),
		zap.String("status", job.Args.Status),
		zap.Int64("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	)
	observe(w.observer, job.Kind, started, nil)
	return nil
}

// NotificationWorker delivers queued quote notifications.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
	logger   *zap.Logger
	observer JobObserver
}

// Work delivers a single notification.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	started := time.Now()
	args := job.Args

	fields := []zap.Field{
		zap.String("notification", args.Notification),
		zap.String("quote_uuid", args.QuoteUUID),
		zap.String("quote_number", args.QuoteNumber),
		zap.Int64("tenant_id", args.TenantID),
		zap.Int64("vendor_id", args.VendorID),
		zap.Int64("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	}
	if args.VendorEmail != "" {
		fields = append(fields, zap.String("vendor_email", args.VendorEmail))
	}
	if args.ResponseType != "" {
		fields = append(fields, zap.String("response_type", args.ResponseType))
	}
	if args.CounterOffer != "" {
		fields = append(fields, zap.String("counter_offer", args.CounterOffer))
	}
	if args.ExpiresAt != nil {
		fields = append(fields, zap.Time("expires_at", *args.ExpiresAt))
	}

	w.logger.Info("delivering quote notification", fields...)
	observe(w.observer, job.Kind, started, nil)
	return nil
}

// ExpiryJobArgs triggers one expiry sweep. It carries no data.
type ExpiryJobArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (ExpiryJobArgs) Kind() string { return "quote.expiry_sweep" }

// ExpiryWorker runs the expiry sweep on River's periodic schedule.
type ExpiryWorker struct {
	river.WorkerDefaults[ExpiryJobArgs]
	expirer  Expirer
	logger   *zap.Logger
	observer JobObserver
}

// Work runs one sweep. A failed sweep is retried by River.
func (w *ExpiryWorker) Work(ctx context.Context, job *river.Job[ExpiryJobArgs]) error {
	started := time.Now()
	n, err := w.expirer.ExpireOverdueQuotes(ctx)
	observe(w.observer, job.Kind, started, err)
	if err != nil {
		w.logger.Error("expiry sweep failed",
			zap.Int("expired", n),
			zap.Int64("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
		return fmt.Errorf("expiring overdue quotes: %w", err)
	}

	w.logger.Debug("expiry sweep finished",
		zap.Int("expired", n),
		zap.Duration("took", time.Since(started)),
		zap.Int64("job_id", job.ID),
	)
	return nil
}
