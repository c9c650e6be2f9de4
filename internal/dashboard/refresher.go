// Package dashboard serves the periodically refreshed stock dashboard over HTTP.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/huangsam/stockpulse/core"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// Refresher recomputes the dashboard on a fixed interval and on demand.
// Ticks run one at a time on the goroutine that called Run.
type Refresher struct {
	store    contract.ObservationStore
	opts     core.Options
	interval time.Duration
	timeout  time.Duration // Zero means no deadline per tick
	metrics  *Metrics
	logger   *slog.Logger

	trigger chan struct{}

	mu     sync.RWMutex
	latest schema.Dashboard
	ready  bool
}

// NewRefresher creates a refresher over store. It does nothing until Run is called.
func NewRefresher(store contract.ObservationStore, opts core.Options, interval, timeout time.Duration, metrics *Metrics, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &Refresher{
		store:    store,
		opts:     opts,
		interval: interval,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run refreshes once immediately, then on every tick or trigger until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", r.interval, "strategy", r.opts.Strategy)
	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return nil
		case <-ticker.C:
			r.tick(ctx)
		case <-r.trigger:
			r.logger.Debug("manual refresh")
			r.tick(ctx)
			ticker.Reset(r.interval)
		}
	}
}

// Trigger queues a refresh. It returns false when one is already queued.
func (r *Refresher) Trigger() bool {
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Latest returns the most recent dashboard and whether any refresh has finished yet.
func (r *Refresher) Latest() (schema.Dashboard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.ready
}

func (r *Refresher) tick(ctx context.Context) {
	tickCtx := core.WithLogger(ctx, r.logger)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(tickCtx, r.timeout)
		defer cancel()
	}

	d := core.Refresh(tickCtx, r.store, r.opts)
	r.metrics.ObserveRefresh(d)

	r.mu.Lock()
	r.latest = d
	r.ready = true
	r.mu.Unlock()
}
