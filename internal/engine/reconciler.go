package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/google/uuid"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/status"
)

// DefaultMaxHistory is the default number of latency samples kept per
// instance.
const DefaultMaxHistory = 60

// Aggregator queries the status of all configured instances.
type Aggregator interface {
	Results(ctx context.Context) (results []status.InstanceResult, err error)
}

// Metrics is the interface for the reconciliation metrics.
type Metrics interface {
	// ObserveRefresh records a finished poll, its duration and whether it
	// changed the indicator.
	ObserveRefresh(ctx context.Context, dur time.Duration, wrote bool)

	// SetIndicator records the symbol currently displayed.
	SetIndicator(ctx context.Context, sym indicator.Symbol)
}

// EmptyMetrics is the implementation of Metrics that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// ObserveRefresh implements the Metrics interface for EmptyMetrics.
func (EmptyMetrics) ObserveRefresh(_ context.Context, _ time.Duration, _ bool) {}

// SetIndicator implements the Metrics interface for EmptyMetrics.
func (EmptyMetrics) SetIndicator(_ context.Context, _ indicator.Symbol) {}

// ReconcilerConfig is the configuration structure for Reconciler.
type ReconcilerConfig struct {
	// Logger is used for reconciliation diagnostics.  It must not be nil.
	Logger *slog.Logger

	// Aggregator provides per-instance results.  It must not be nil.
	Aggregator Aggregator

	// Sink is the indicator to keep in sync.  It must not be nil.
	Sink indicator.Sink

	// Metrics is used for the collection of statistics.  If nil,
	// EmptyMetrics is used.
	Metrics Metrics

	// MaxHistory is the number of latency samples kept per instance.  If
	// zero, DefaultMaxHistory is used.
	MaxHistory int
}

// Reconciler keeps the indicator consistent with the combined status of all
// instances.  It writes the indicator only when the displayed symbol does not
// already match the status.
type Reconciler struct {
	logger      *slog.Logger
	agg         Aggregator
	sink        indicator.Sink
	metrics     Metrics
	mu          sync.RWMutex
	history     map[string]*RingBuffer[LatencySample]
	last        *Snapshot
	subscribers []chan EngineEvent
	maxHistory  int
	pollCount   int
	errorCount  int
}

// NewReconciler returns a new reconciler.  c must not be nil.
func NewReconciler(c *ReconcilerConfig) (r *Reconciler) {
	m := c.Metrics
	if m == nil {
		m = EmptyMetrics{}
	}

	maxHistory := c.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}

	return &Reconciler{
		logger:     c.Logger.With(slogutil.KeyPrefix, "reconciler"),
		agg:        c.Aggregator,
		sink:       c.Sink,
		metrics:    m,
		history:    map[string]*RingBuffer[LatencySample]{},
		last:       &Snapshot{},
		maxHistory: maxHistory,
	}
}

// Refresh polls all instances, combines their status and updates the
// indicator if it diverges.  err is only returned if the indicator could not
// be written; an unreachable or misconfigured instance is reported through the
// Err symbol and the snapshot.
func (r *Reconciler) Refresh(ctx context.Context) (snap *Snapshot, err error) {
	start := time.Now()

	reqID := uuid.NewString()
	ctx = adguard.WithRequestID(ctx, reqID)

	results, cfgErr := r.agg.Results(ctx)
	combined := status.Error
	if cfgErr == nil {
		combined = status.Combine(results)
	} else {
		r.logger.WarnContext(ctx, "reading instances", "request_id", reqID, slogutil.KeyError, cfgErr)
	}

	sym, wrote, err := r.reconcile(ctx, combined)

	r.metrics.ObserveRefresh(ctx, time.Since(start), wrote)
	r.metrics.SetIndicator(ctx, sym)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(results, start)
	r.pollCount++
	r.last = r.snapshotLocked(results, combined, sym, reqID, cfgErr, wrote)
	r.last.LastPoll = start
	for i := range r.last.Instances {
		r.last.Instances[i].LastPoll = start
	}
	r.notify()

	return r.last, err
}

// reconcile compares the displayed symbol with combined and writes the
// symbol for combined if they diverge.
func (r *Reconciler) reconcile(
	ctx context.Context,
	combined status.Status,
) (sym indicator.Symbol, wrote bool, err error) {
	cur, err := r.sink.Indicator(ctx)
	if err != nil {
		// Treat an unreadable indicator as divergent.
		r.logger.WarnContext(ctx, "reading indicator", slogutil.KeyError, err)
		cur = indicator.Unknown
	}

	if indicator.Matches(cur, combined) {
		return cur, false, nil
	}

	sym = indicator.FromStatus(combined)
	err = r.sink.SetIndicator(ctx, sym)
	if err != nil {
		return cur, false, fmt.Errorf("writing indicator %q: %w", sym, err)
	}

	r.logger.DebugContext(ctx, "indicator updated", "from", cur, "to", sym, "status", combined)

	return sym, true, nil
}

// record adds the results to the per-instance latency history.  r.mu must be
// locked.
func (r *Reconciler) record(results []status.InstanceResult, now time.Time) {
	for _, res := range results {
		h, ok := r.history[res.Name]
		if !ok {
			h = NewRingBuffer[LatencySample](r.maxHistory)
			r.history[res.Name] = h
		}

		h.Add(LatencySample{
			Timestamp: now,
			Latency:   res.Latency,
			OK:        res.Err == nil,
		})

		if res.Err != nil {
			r.errorCount++
		}
	}
}

// snapshotLocked builds a Snapshot.  r.mu must be locked.
func (r *Reconciler) snapshotLocked(
	results []status.InstanceResult,
	combined status.Status,
	sym indicator.Symbol,
	reqID string,
	cfgErr error,
	wrote bool,
) (snap *Snapshot) {
	snap = &Snapshot{
		Combined:    combined,
		Indicator:   sym,
		RequestID:   reqID,
		ConfigError: cfgErr,
		PollCount:   r.pollCount,
		ErrorCount:  r.errorCount,
		Wrote:       wrote,
	}

	for _, res := range results {
		snap.Instances = append(snap.Instances, InstanceStats{
			Name:      res.Name,
			Status:    res.Status(),
			Info:      res.Info,
			PollError: res.Err,
			Latency:   res.Latency,
			History:   r.history[res.Name],
		})
	}

	return snap
}

// Snapshot returns the snapshot of the last poll.  It is safe for concurrent
// use.
func (r *Reconciler) Snapshot() (snap *Snapshot) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.last
}

// Subscribe returns a channel that receives an event after each poll.
func (r *Reconciler) Subscribe() <-chan EngineEvent {
	ch := make(chan EngineEvent, 1)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers = append(r.subscribers, ch)

	return ch
}

// notify sends the last snapshot to all subscribers without blocking.  r.mu
// must be locked.
func (r *Reconciler) notify() {
	event := EngineEvent{Snapshot: r.last}
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// counts returns the poll and error counters.
func (r *Reconciler) counts() (polls, errs int, last time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.pollCount, r.errorCount, r.last.LastPoll
}
