package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Refresher re-reads the shared collection and pushes changes to live views.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StoreWatchJob periodically refreshes a database-backed store so that writes
// made by other service instances reach this instance's subscribers.
type StoreWatchJob struct {
	store    Refresher
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}

	errLog   rate.Sometimes
	failures atomic.Int64
}

// NewStoreWatchJob creates a new store watch job
func NewStoreWatchJob(store Refresher, interval time.Duration) *StoreWatchJob {
	return &StoreWatchJob{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		errLog:   rate.Sometimes{First: 1, Interval: time.Minute},
	}
}

// Start begins the watch loop
func (j *StoreWatchJob) Start() {
	j.ticker = time.NewTicker(j.interval)
	slog.Info("store_watch_started", "interval", j.interval.String())

	go func() {
		defer close(j.stopped)
		for {
			select {
			case <-j.ticker.C:
				j.refresh()
			case <-j.done:
				slog.Info("store_watch_stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight refresh to finish.
func (j *StoreWatchJob) Stop() {
	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	close(j.done)
	<-j.stopped
}

// Failures counts refreshes that returned an error.
func (j *StoreWatchJob) Failures() int64 {
	return j.failures.Load()
}

func (j *StoreWatchJob) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	if err := j.store.Refresh(ctx); err != nil {
		n := j.failures.Add(1)
		// Repeated failures are logged at most once a minute.
		j.errLog.Do(func() {
			slog.Warn("store_watch_refresh_failed", "error", err, "failures", n)
		})
	}
}
