package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"b4u/config"
	"b4u/services"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(
		Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		}},
		Job{Name: "disabled", Run: func(ctx context.Context) error {
			t.Error("disabled job ran")
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

type recordingSweeper struct {
	expireCutoff    time.Time
	reconcileCutoff time.Time
}

func (r *recordingSweeper) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	r.expireCutoff = cutoff
	return 2, nil
}

func (r *recordingSweeper) Reconcile(ctx context.Context, cutoff time.Time) (int, error) {
	r.reconcileCutoff = cutoff
	return 0, nil
}

type stubRefresher struct{ calls int }

func (s *stubRefresher) Refresh(ctx context.Context) services.Quote {
	s.calls++
	return services.Quote{Source: services.SourceLive}
}

func TestStorefrontJobs(t *testing.T) {
	cfg := config.JobsConfig{StalePendingAfter: 2 * time.Hour, ReconcileAfter: 15 * time.Minute, SweepInterval: time.Minute}
	sweeper := &recordingSweeper{}

	assert.NoError(t, ExpirePending(sweeper, cfg).Run(context.Background()))
	assert.WithinDuration(t, time.Now().Add(-2*time.Hour), sweeper.expireCutoff, time.Second)

	assert.NoError(t, ReconcileProcessing(sweeper, cfg).Run(context.Background()))
	assert.WithinDuration(t, time.Now().Add(-15*time.Minute), sweeper.reconcileCutoff, time.Second)

	refresher := &stubRefresher{}
	job := PriceRefresh(refresher, time.Minute)
	assert.Equal(t, time.Minute, job.Interval)
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, refresher.calls)
}
