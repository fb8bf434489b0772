package river

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingObserver struct {
	durations int
	success   map[string]int
	failure   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{success: map[string]int{}, failure: map[string]int{}}
}

func (o *countingObserver) ObserveDuration(string, time.Duration) { o.durations++ }
func (o *countingObserver) IncSuccess(job string)                { o.success[job]++ }
func (o *countingObserver) IncFailure(job string)                { o.failure[job]++ }

func expiryJob() *river.Job[ExpiryJobArgs] {
	return &river.Job[ExpiryJobArgs]{
		JobRow: &rivertype.JobRow{ID: 17, Kind: ExpiryJobArgs{}.Kind(), Attempt: 1},
	}
}

func TestExpiryWorker_Failure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := newCountingObserver()
	boom := errors.New("database is locked")
	w := &ExpiryWorker{
		expirer:  ExpirerFunc(func(context.Context) (int, error) { return 1, boom }),
		logger:   zap.New(core),
		observer: obs,
	}

	err := w.Work(context.Background(), expiryJob())
	if !errors.Is(err, boom) {
		t.Fatalf("Work error = %v, want %v", err, boom)
	}
	if obs.failure["quote.expiry_sweep"] != 1 || obs.success["quote.expiry_sweep"] != 0 {
		t.Errorf("observer = %+v", obs)
	}
	if obs.durations != 1 {
		t.Errorf("durations observed = %d, want 1", obs.durations)
	}
	entries := logs.FilterMessage("expiry sweep failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["expired"]; got != int64(1) {
		t.Errorf("expired field = %v, want 1", got)
	}
}

func TestExpiryWorker_Success(t *testing.T) {
	obs := newCountingObserver()
	w := &ExpiryWorker{
		expirer:  ExpirerFunc(func(context.Context) (int, error) { return 3, nil }),
		logger:   zap.NewNop(),
		observer: obs,
	}

	if err := w.Work(context.Background(), expiryJob()); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if obs.success["quote.expiry_sweep"] != 1 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestObserve_NilObserver(t *testing.T) {
	// Must not panic.
	observe(nil, "quote.event", time.Now(), errors.New("x"))
}
