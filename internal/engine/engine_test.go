package engine_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/alarm"
	"github.com/tonhe/agtoggle/internal/engine"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/status"
)

// testTimeout is the common timeout for tests.
const testTimeout = 2 * time.Second

// testError is a generic error for tests.
const testError errors.Error = "test error"

// fakeAggregator is an engine.Aggregator returning fixed results.
type fakeAggregator struct {
	mu      sync.Mutex
	err     error
	results []status.InstanceResult
	reqIDs  []string
}

// Results implements the engine.Aggregator interface for *fakeAggregator.
func (a *fakeAggregator) Results(ctx context.Context) (results []status.InstanceResult, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, _ := adguard.RequestIDFromContext(ctx)
	a.reqIDs = append(a.reqIDs, id)

	return a.results, a.err
}

// set replaces the results returned by a.
func (a *fakeAggregator) set(results ...status.InstanceResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = results
}

// failingSink is an indicator.Sink whose writes fail.
type failingSink struct{}

// SetIndicator implements the indicator.Sink interface for failingSink.
func (failingSink) SetIndicator(_ context.Context, _ indicator.Symbol) (err error) {
	return testError
}

// Indicator implements the indicator.Sink interface for failingSink.
func (failingSink) Indicator(_ context.Context) (sym indicator.Symbol, err error) {
	return indicator.Unknown, testError
}

// Result helpers.
var (
	resOn  = status.InstanceResult{Name: "a", Info: &adguard.StatusInfo{ProtectionEnabled: true}}
	resOff = status.InstanceResult{Name: "b", Info: &adguard.StatusInfo{ProtectionEnabled: false}}
	resBad = status.InstanceResult{Name: "c", Err: testError}
)

// newTestReconciler returns a reconciler over agg and sink.
func newTestReconciler(agg engine.Aggregator, sink indicator.Sink) (r *engine.Reconciler) {
	return engine.NewReconciler(&engine.ReconcilerConfig{
		Logger:     slogutil.NewDiscardLogger(),
		Aggregator: agg,
		Sink:       sink,
		MaxHistory: 4,
	})
}

func TestReconciler_Refresh(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		initial   indicator.Symbol
		results   []status.InstanceResult
		wantSym   indicator.Symbol
		wantWrite bool
	}{{
		name:      "on_matches_enabled",
		initial:   indicator.On,
		results:   []status.InstanceResult{resOn},
		wantSym:   indicator.On,
		wantWrite: false,
	}, {
		name:      "off_matches_disabled",
		initial:   indicator.Off,
		results:   []status.InstanceResult{resOn, resOff},
		wantSym:   indicator.Off,
		wantWrite: false,
	}, {
		name:      "unknown_to_on",
		initial:   indicator.Unknown,
		results:   []status.InstanceResult{resOn},
		wantSym:   indicator.On,
		wantWrite: true,
	}, {
		name:      "on_to_off",
		initial:   indicator.On,
		results:   []status.InstanceResult{resOff},
		wantSym:   indicator.Off,
		wantWrite: true,
	}, {
		name:      "ok_to_err",
		initial:   indicator.Ok,
		results:   []status.InstanceResult{resOn, resBad},
		wantSym:   indicator.Err,
		wantWrite: true,
	}, {
		name:      "err_rewritten",
		initial:   indicator.Err,
		results:   []status.InstanceResult{resBad},
		wantSym:   indicator.Err,
		wantWrite: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sink := indicator.NewMemorySink(tc.initial)
			r := newTestReconciler(&fakeAggregator{results: tc.results}, sink)

			snap, err := r.Refresh(testutil.ContextWithTimeout(t, testTimeout))
			require.NoError(t, err)

			assert.Equal(t, tc.wantSym, snap.Indicator)
			assert.Equal(t, tc.wantWrite, snap.Wrote)

			wantWrites := 0
			if tc.wantWrite {
				wantWrites = 1
			}
			assert.Equal(t, wantWrites, sink.Writes())

			sym, err := sink.Indicator(testutil.ContextWithTimeout(t, testTimeout))
			require.NoError(t, err)
			assert.Equal(t, tc.wantSym, sym)
		})
	}
}

func TestReconciler_Refresh_steadyState(t *testing.T) {
	t.Parallel()

	sink := indicator.NewMemorySink(indicator.Unknown)
	r := newTestReconciler(&fakeAggregator{results: []status.InstanceResult{resOn}}, sink)

	for range 5 {
		_, err := r.Refresh(testutil.ContextWithTimeout(t, testTimeout))
		require.NoError(t, err)
	}

	// Only the first poll changes the indicator.
	assert.Equal(t, 1, sink.Writes())
	assert.Equal(t, 5, r.Snapshot().PollCount)
}

func TestReconciler_Refresh_configError(t *testing.T) {
	t.Parallel()

	sink := indicator.NewMemorySink(indicator.On)
	r := newTestReconciler(&fakeAggregator{err: status.ErrNoInstances}, sink)

	snap, err := r.Refresh(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	assert.Equal(t, status.Error, snap.Combined)
	assert.Equal(t, indicator.Err, snap.Indicator)
	assert.ErrorIs(t, snap.ConfigError, status.ErrNoInstances)
	assert.Empty(t, snap.Instances)
}

func TestReconciler_Refresh_sinkError(t *testing.T) {
	t.Parallel()

	r := newTestReconciler(&fakeAggregator{results: []status.InstanceResult{resOn}}, failingSink{})

	snap, err := r.Refresh(testutil.ContextWithTimeout(t, testTimeout))
	assert.ErrorIs(t, err, testError)
	require.NotNil(t, snap)
	assert.Equal(t, status.Enabled, snap.Combined)
}

func TestReconciler_Refresh_history(t *testing.T) {
	t.Parallel()

	agg := &fakeAggregator{}
	r := newTestReconciler(agg, indicator.NewMemorySink(indicator.Unknown))
	ctx := testutil.ContextWithTimeout(t, testTimeout)

	agg.set(resOn, resBad)
	for range 6 {
		_, err := r.Refresh(ctx)
		require.NoError(t, err)
	}

	snap := r.Snapshot()
	require.Len(t, snap.Instances, 2)
	assert.Equal(t, 6, snap.ErrorCount)

	a, c := snap.Instances[0], snap.Instances[1]
	assert.Equal(t, status.Enabled, a.Status)
	assert.Equal(t, status.Error, c.Status)
	assert.ErrorIs(t, c.PollError, testError)

	// History is capped.
	assert.Equal(t, 4, a.History.Len())

	last, ok := c.History.Last()
	require.True(t, ok)
	assert.False(t, last.OK)

	// Every poll carries its own request ID.
	agg.mu.Lock()
	defer agg.mu.Unlock()

	seen := map[string]struct{}{}
	for _, id := range agg.reqIDs {
		require.NotEmpty(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 6)
}

func TestReconciler_Subscribe(t *testing.T) {
	t.Parallel()

	r := newTestReconciler(
		&fakeAggregator{results: []status.InstanceResult{resOff}},
		indicator.NewMemorySink(indicator.Unknown),
	)
	events := r.Subscribe()

	_, err := r.Refresh(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	ev, ok := testutil.RequireReceive(t, events, testTimeout)
	require.True(t, ok)
	assert.Equal(t, status.Disabled, ev.Snapshot.Combined)

	// A slow subscriber does not block polls.
	for range 3 {
		_, err = r.Refresh(testutil.ContextWithTimeout(t, testTimeout))
		require.NoError(t, err)
	}
}

// newTestManager returns a manager with an alarm of the given period.
func newTestManager(
	tb testing.TB,
	agg engine.Aggregator,
	sink indicator.Sink,
	period time.Duration,
) (m *engine.Manager) {
	tb.Helper()

	a, err := alarm.New(&alarm.Config{
		Logger: slogutil.NewDiscardLogger(),
		Path:   filepath.Join(tb.TempDir(), "alarm.json"),
		Name:   "refresh",
		Period: period,
	})
	require.NoError(tb, err)

	m = engine.NewManager(&engine.ManagerConfig{
		Logger:          slogutil.NewDiscardLogger(),
		Reconciler:      newTestReconciler(agg, sink),
		Sink:            sink,
		Alarm:           a,
		RefreshInterval: time.Hour,
	})

	tb.Cleanup(func() {
		require.NoError(tb, m.Shutdown(testutil.ContextWithTimeout(tb, testTimeout)))
	})

	return m
}

func TestManager_Start(t *testing.T) {
	t.Parallel()

	sink := indicator.NewMemorySink(indicator.On)
	m := newTestManager(t, &fakeAggregator{results: []status.InstanceResult{resOn}}, sink, time.Hour)

	require.NoError(t, m.Start(testutil.ContextWithTimeout(t, testTimeout)))

	// The indicator is cleared and then set by the first poll, even though it
	// displayed the right symbol before the start.
	assert.Equal(t, 2, sink.Writes())
	assert.Equal(t, indicator.On, m.Snapshot().Indicator)
	assert.Equal(t, engine.EngineRunning, m.Info().State)

	assert.Error(t, m.Start(testutil.ContextWithTimeout(t, testTimeout)))
}

func TestManager_alarm(t *testing.T) {
	t.Parallel()

	m := newTestManager(
		t,
		&fakeAggregator{results: []status.InstanceResult{resOn}},
		indicator.NewMemorySink(indicator.Unknown),
		20*time.Millisecond,
	)
	events := m.Subscribe()

	require.NoError(t, m.Start(testutil.ContextWithTimeout(t, testTimeout)))

	for range 3 {
		_, ok := testutil.RequireReceive(t, events, testTimeout)
		require.True(t, ok)
	}

	assert.GreaterOrEqual(t, m.Info().PollCount, 3)
}

func TestManager_Refresh_throttled(t *testing.T) {
	t.Parallel()

	m := newTestManager(
		t,
		&fakeAggregator{results: []status.InstanceResult{resOff}},
		indicator.NewMemorySink(indicator.Unknown),
		time.Hour,
	)

	ctx := testutil.ContextWithTimeout(t, testTimeout)

	snap, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.PollCount)

	snap, err = m.Refresh(ctx)
	assert.ErrorIs(t, err, engine.ErrThrottled)
	assert.Equal(t, 1, snap.PollCount)
}

func TestManager_Shutdown(t *testing.T) {
	t.Parallel()

	m := newTestManager(
		t,
		&fakeAggregator{results: []status.InstanceResult{resOn}},
		indicator.NewMemorySink(indicator.Unknown),
		time.Hour,
	)

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Shutdown(ctx))

	assert.Equal(t, engine.EngineStopped, m.Info().State)

	// Shutting down twice is fine.
	require.NoError(t, m.Shutdown(ctx))
}
