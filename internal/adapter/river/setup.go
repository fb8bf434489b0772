package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"
)

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Options configures the workers registered by Setup.
type Options struct {
	Logger *zap.Logger
	// Workers is the size of the default queue. Zero means 2.
	Workers int
	// Observer receives timing and outcome of every job. May be nil.
	Observer JobObserver
	// Expirer runs the periodic expiry sweep. The sweep is only scheduled
	// when both Expirer and ExpirySweepInterval are set.
	Expirer             Expirer
	ExpirySweepInterval time.Duration
}

// Setup creates a River client with the quote workers registered and runs
// River's internal migrations. The caller must call client.Start() to begin
// processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, opts Options) (*Client, error) {
	driver := riversqlite.New(db)

	// Run River's own migrations (creates river_job, river_leader, etc.).
	// These are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("river")

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{logger: log, observer: opts.Observer})
	river.AddWorker(workers, &NotificationWorker{logger: log, observer: opts.Observer})

	var periodic []*river.PeriodicJob
	if opts.Expirer != nil {
		river.AddWorker(workers, &ExpiryWorker{expirer: opts.Expirer, logger: log, observer: opts.Observer})
		if opts.ExpirySweepInterval > 0 {
			periodic = append(periodic, river.NewPeriodicJob(
				river.PeriodicInterval(opts.ExpirySweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return ExpiryJobArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			))
		}
	}

	maxWorkers := opts.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
