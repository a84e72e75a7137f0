package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/tonhe/agtoggle/internal/alarm"
	"github.com/tonhe/agtoggle/internal/indicator"
	"golang.org/x/time/rate"
)

// DefaultRefreshInterval is the default minimum interval between two manual
// refreshes.
const DefaultRefreshInterval = 2 * time.Second

// ErrThrottled is returned by Manager.Refresh when a manual refresh is
// requested too soon after the previous one.
const ErrThrottled errors.Error = "refresh throttled"

// ManagerConfig is the configuration structure for Manager.
type ManagerConfig struct {
	// Logger is used for lifecycle diagnostics.  It must not be nil.
	Logger *slog.Logger

	// Reconciler performs the polls.  It must not be nil.
	Reconciler *Reconciler

	// Sink is cleared on start.  It must not be nil.
	Sink indicator.Sink

	// Alarm triggers the recurring polls.  It must not be nil.
	Alarm *alarm.Scheduler

	// RefreshInterval is the minimum interval between manual refreshes.  If
	// zero, DefaultRefreshInterval is used.
	RefreshInterval time.Duration
}

// Manager runs the reconciler on the alarm schedule and serves on-demand
// refreshes.
type Manager struct {
	logger  *slog.Logger
	rec     *Reconciler
	sink    indicator.Sink
	alarm   *alarm.Scheduler
	limiter *rate.Limiter

	mu     sync.Mutex
	state  EngineState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager returns a new stopped manager.  c must not be nil.
func NewManager(c *ManagerConfig) (m *Manager) {
	ivl := c.RefreshInterval
	if ivl <= 0 {
		ivl = DefaultRefreshInterval
	}

	return &Manager{
		logger:  c.Logger.With(slogutil.KeyPrefix, "engine"),
		rec:     c.Reconciler,
		sink:    c.Sink,
		alarm:   c.Alarm,
		limiter: rate.NewLimiter(rate.Every(ivl), 1),
		state:   EngineStopped,
	}
}

// Start clears the indicator, polls once and then starts the recurring polls
// in the background.  A failed first poll is logged and does not prevent the
// start.
func (m *Manager) Start(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == EngineRunning {
		return fmt.Errorf("engine: %w", errors.ErrDuplicated)
	}

	err = m.sink.SetIndicator(ctx, indicator.Unknown)
	if err != nil {
		return fmt.Errorf("clearing indicator: %w", err)
	}

	_, err = m.rec.Refresh(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "initial refresh", slogutil.KeyError, err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})
	m.state = EngineRunning

	go m.run(loopCtx, m.done)

	return nil
}

// run drives the reconciler from the alarm until ctx is canceled.
func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	err := m.alarm.Run(ctx, func(ctx context.Context) {
		_, rerr := m.rec.Refresh(ctx)
		if rerr != nil {
			m.logger.WarnContext(ctx, "scheduled refresh", slogutil.KeyError, rerr)
		}
	})
	if errors.Is(err, context.Canceled) {
		return
	}

	m.logger.ErrorContext(ctx, "alarm stopped", slogutil.KeyError, err)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = EngineError
}

// Shutdown stops the recurring polls and waits for the loop to exit or for
// ctx to be done.
func (m *Manager) Shutdown(ctx context.Context) (err error) {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.state = EngineStopped
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for engine: %w", ctx.Err())
	}
}

// Refresh polls immediately.  Requests arriving faster than the configured
// interval get the last snapshot and ErrThrottled.
func (m *Manager) Refresh(ctx context.Context) (snap *Snapshot, err error) {
	if !m.limiter.Allow() {
		return m.rec.Snapshot(), ErrThrottled
	}

	return m.rec.Refresh(ctx)
}

// Snapshot returns the snapshot of the last poll.
func (m *Manager) Snapshot() (snap *Snapshot) {
	return m.rec.Snapshot()
}

// Subscribe returns a channel that receives an event after each poll.
func (m *Manager) Subscribe() <-chan EngineEvent {
	return m.rec.Subscribe()
}

// Info returns summary information about the loop.
func (m *Manager) Info() (info EngineInfo) {
	polls, errs, last := m.rec.counts()

	m.mu.Lock()
	defer m.mu.Unlock()

	return EngineInfo{
		State:      m.state,
		LastPoll:   last,
		PollCount:  polls,
		ErrorCount: errs,
	}
}
