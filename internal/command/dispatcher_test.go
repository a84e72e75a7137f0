package command_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/command"
	"github.com/tonhe/agtoggle/internal/indicator"
)

// testTimeout is the common timeout for tests.
const testTimeout = 2 * time.Second

// testDomain is the current domain for tests.
const testDomain = "ads.example.org"

// testError is a generic error for tests.
const testError errors.Error = "test error"

// fakeSettings is a command.Settings for tests.
type fakeSettings struct {
	err           error
	insts         []adguard.InstanceConfig
	disable       time.Duration
	reloadDisable bool
	reloadAllow   bool
}

// type check
var _ command.Settings = (*fakeSettings)(nil)

// InstanceConfigs implements the command.Settings interface for *fakeSettings.
func (s *fakeSettings) InstanceConfigs(_ context.Context) (insts []adguard.InstanceConfig, err error) {
	return s.insts, s.err
}

// DefaultDisableDuration implements the command.Settings interface for
// *fakeSettings.
func (s *fakeSettings) DefaultDisableDuration(_ context.Context) (d time.Duration) {
	return s.disable
}

// ReloadAfterDisable implements the command.Settings interface for
// *fakeSettings.
func (s *fakeSettings) ReloadAfterDisable(_ context.Context) (ok bool) { return s.reloadDisable }

// ReloadAfterAllow implements the command.Settings interface for
// *fakeSettings.
func (s *fakeSettings) ReloadAfterAllow(_ context.Context) (ok bool) { return s.reloadAllow }

// fakeTab is a command.Tab for tests.
type fakeTab struct {
	reloads chan time.Duration
	domain  string
}

// CurrentDomain implements the command.Tab interface for *fakeTab.
func (t *fakeTab) CurrentDomain(_ context.Context) (domain string) { return t.domain }

// ReloadCurrentTab implements the command.Tab interface for *fakeTab.
func (t *fakeTab) ReloadCurrentTab(_ context.Context, delay time.Duration) {
	t.reloads <- delay
}

// callLog records client calls from all instances.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

// add appends a call.
func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

// all returns a copy of the recorded calls.
func (l *callLog) all() (calls []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.calls)
}

// fakeClient is a command.Client for tests.
type fakeClient struct {
	log     *callLog
	setErr  error
	listErr error
	name    string
	ackBody string
	message string
}

// SetProtection implements the command.Client interface for *fakeClient.
func (c *fakeClient) SetProtection(
	_ context.Context,
	enabled bool,
	dur time.Duration,
) (ack *adguard.Ack, err error) {
	c.log.add("%s:protection:%t:%s", c.name, enabled, dur)
	if c.setErr != nil {
		return nil, c.setErr
	}

	return &adguard.Ack{Body: c.ackBody}, nil
}

// AddToList implements the command.Client interface for *fakeClient.
func (c *fakeClient) AddToList(
	_ context.Context,
	l adguard.List,
	domain string,
) (st *adguard.ListStatus, err error) {
	c.log.add("%s:add:%s:%s", c.name, l, domain)
	if c.listErr != nil {
		return nil, c.listErr
	}

	return &adguard.ListStatus{Success: true, Message: c.message}, nil
}

// RemoveFromList implements the command.Client interface for *fakeClient.
func (c *fakeClient) RemoveFromList(
	_ context.Context,
	l adguard.List,
	domain string,
) (st *adguard.ListStatus, err error) {
	c.log.add("%s:sub:%s:%s", c.name, l, domain)
	if c.listErr != nil {
		return nil, c.listErr
	}

	return &adguard.ListStatus{Success: true, Message: "Removed"}, nil
}

// testEnv is a dispatcher with its collaborators.
type testEnv struct {
	d        *command.Dispatcher
	sink     *indicator.MemorySink
	tab      *fakeTab
	log      *callLog
	settings *fakeSettings
}

// newTestEnv returns a dispatcher over clients displaying sym.  Clients are
// named after their position.
func newTestEnv(sym indicator.Symbol, clients ...*fakeClient) (env *testEnv) {
	env = &testEnv{
		sink:     indicator.NewMemorySink(sym),
		tab:      &fakeTab{domain: testDomain, reloads: make(chan time.Duration, 4)},
		log:      &callLog{},
		settings: &fakeSettings{},
	}

	byName := map[string]*fakeClient{}
	for i, c := range clients {
		c.name = string(rune('a' + i))
		c.log = env.log
		if c.ackBody == "" {
			c.ackBody = adguard.AckToken
		}

		byName[c.name] = c
		env.settings.insts = append(env.settings.insts, adguard.InstanceConfig{Name: c.name})
	}

	env.d = command.New(&command.Config{
		Logger:   slogutil.NewDiscardLogger(),
		Settings: env.settings,
		Sink:     env.sink,
		Tab:      env.tab,
		NewClient: func(inst adguard.InstanceConfig) (c command.Client) {
			return byName[inst.Name]
		},
	})

	return env
}

// symbol returns the displayed symbol.
func (env *testEnv) symbol(tb testing.TB) (sym indicator.Symbol) {
	tb.Helper()

	sym, err := env.sink.Indicator(context.Background())
	require.NoError(tb, err)

	return sym
}

func TestDispatcher_Toggle_enable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.Off, &fakeClient{}, &fakeClient{})
	env.settings.reloadDisable = true

	err := env.d.Toggle(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	assert.Equal(t, indicator.On, env.symbol(t))
	assert.ElementsMatch(t, []string{"a:protection:true:0s", "b:protection:true:0s"}, env.log.all())

	// Enabling never reloads.
	assert.Empty(t, env.tab.reloads)
}

func TestDispatcher_Toggle_disable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{}, &fakeClient{}, &fakeClient{})
	env.settings.reloadDisable = true

	err := env.d.Toggle(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	assert.Equal(t, indicator.Off, env.symbol(t))
	assert.Len(t, env.log.all(), 3)
	for _, c := range env.log.all() {
		assert.True(t, strings.HasSuffix(c, ":protection:false:30s"), c)
	}

	delay, ok := testutil.RequireReceive(t, env.tab.reloads, testTimeout)
	require.True(t, ok)
	assert.Equal(t, command.ReloadDelay, delay)
}

func TestDispatcher_Toggle_configuredDuration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{})
	env.settings.disable = 5 * time.Minute

	err := env.d.Toggle(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	assert.Equal(t, []string{"a:protection:false:5m0s"}, env.log.all())
	assert.Empty(t, env.tab.reloads)
}

func TestDispatcher_Toggle_ambiguous(t *testing.T) {
	t.Parallel()

	for _, sym := range []indicator.Symbol{indicator.Unknown, indicator.Err, indicator.Ok} {
		t.Run(string(sym), func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(sym, &fakeClient{})

			err := env.d.Toggle(testutil.ContextWithTimeout(t, testTimeout))
			assert.ErrorIs(t, err, command.ErrAmbiguousState)

			assert.Empty(t, env.log.all())
			assert.Zero(t, env.sink.Writes())
		})
	}
}

func TestDispatcher_Toggle_partialFailure(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		client  *fakeClient
		wantErr error
		name    string
	}{{
		client:  &fakeClient{ackBody: "Error"},
		wantErr: command.ErrNotAcknowledged,
		name:    "not_acknowledged",
	}, {
		client:  &fakeClient{setErr: &adguard.Fault{Kind: adguard.KindServer, Code: 500, Err: testError}},
		wantErr: testError,
		name:    "server_fault",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(indicator.Off, &fakeClient{}, tc.client)

			err := env.d.Toggle(testutil.ContextWithTimeout(t, testTimeout))
			assert.ErrorIs(t, err, tc.wantErr)

			// The healthy instance was still changed.
			assert.Len(t, env.log.all(), 2)
			assert.Equal(t, indicator.Err, env.symbol(t))
		})
	}
}

func TestDispatcher_Toggle_noInstances(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.Off)

	err := env.d.Toggle(testutil.ContextWithTimeout(t, testTimeout))
	assert.Error(t, err)
	assert.Equal(t, indicator.Err, env.symbol(t))
}

func TestDispatcher_SetProtection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.Err, &fakeClient{})

	ctx := testutil.ContextWithTimeout(t, testTimeout)

	require.NoError(t, env.d.SetProtection(ctx, false, 10*time.Minute))
	assert.Equal(t, indicator.Off, env.symbol(t))

	require.NoError(t, env.d.SetProtection(ctx, true, 0))
	assert.Equal(t, indicator.On, env.symbol(t))

	require.NoError(t, env.d.SetProtection(ctx, false, 0))
	assert.Equal(t, indicator.Off, env.symbol(t))

	assert.Equal(t, []string{
		"a:protection:false:10m0s",
		"a:protection:true:0s",
		"a:protection:false:30s",
	}, env.log.all())
}

func TestDispatcher_Allowlist(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{message: "Added"}, &fakeClient{message: "Exists"})
	env.settings.reloadAllow = true

	err := env.d.Allowlist(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	calls := env.log.all()
	require.Len(t, calls, 4)

	// Every removal precedes every addition.
	assert.ElementsMatch(t, []string{
		"a:sub:deny:" + testDomain,
		"b:sub:deny:" + testDomain,
	}, calls[:2])
	assert.ElementsMatch(t, []string{
		"a:add:allow:" + testDomain,
		"b:add:allow:" + testDomain,
	}, calls[2:])

	assert.Equal(t, indicator.Ok, env.symbol(t))

	_, ok := testutil.RequireReceive(t, env.tab.reloads, testTimeout)
	assert.True(t, ok)
}

func TestDispatcher_Allowlist_notAdded(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{message: "Exists"})
	env.settings.reloadAllow = true

	require.NoError(t, env.d.Allowlist(testutil.ContextWithTimeout(t, testTimeout)))

	assert.Equal(t, indicator.Ok, env.symbol(t))
	assert.Empty(t, env.tab.reloads)
}

func TestDispatcher_Denylist(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{message: "Added"})
	env.settings.reloadAllow = true

	require.NoError(t, env.d.Denylist(testutil.ContextWithTimeout(t, testTimeout)))

	assert.Equal(t, []string{
		"a:sub:allow:" + testDomain,
		"a:add:deny:" + testDomain,
	}, env.log.all())
	assert.Equal(t, indicator.Ok, env.symbol(t))

	// Only allowlisting reloads.
	assert.Empty(t, env.tab.reloads)
}

func TestDispatcher_Denylist_emptyDomain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{})
	env.tab.domain = ""

	err := env.d.Denylist(testutil.ContextWithTimeout(t, testTimeout))
	assert.ErrorIs(t, err, command.ErrNoDomain)

	assert.Empty(t, env.log.all())
	assert.Zero(t, env.sink.Writes())
	assert.Equal(t, indicator.On, env.symbol(t))
}

func TestDispatcher_Move_fault(t *testing.T) {
	t.Parallel()

	env := newTestEnv(indicator.On, &fakeClient{}, &fakeClient{listErr: testError})

	_, err := env.d.Move(testutil.ContextWithTimeout(t, testTimeout), adguard.ListAllow, testDomain)
	assert.ErrorIs(t, err, testError)

	// A failed removal stops the addition phase.
	for _, c := range env.log.all() {
		assert.Contains(t, c, ":sub:")
	}

	assert.Equal(t, indicator.Err, env.symbol(t))
}
