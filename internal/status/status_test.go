package status_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/status"
)

// testTimeout is the common timeout for tests.
const testTimeout = 2 * time.Second

// testError is a generic error for tests.
const testError errors.Error = "test error"

// fakeSource is a ConfigSource for tests.
type fakeSource struct {
	err   error
	insts []adguard.InstanceConfig
}

// InstanceConfigs implements the status.ConfigSource interface for
// *fakeSource.
func (s *fakeSource) InstanceConfigs(_ context.Context) (insts []adguard.InstanceConfig, err error) {
	return s.insts, s.err
}

// fakeClient is a status.Client for tests.
type fakeClient struct {
	info  *adguard.StatusInfo
	err   error
	delay time.Duration
}

// Status implements the status.Client interface for *fakeClient.
func (c *fakeClient) Status(ctx context.Context) (info *adguard.StatusInfo, err error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return c.info, c.err
}

// Version implements the status.Client interface for *fakeClient.
func (c *fakeClient) Version(_ context.Context) (info *adguard.VersionInfo, err error) {
	if c.err != nil {
		return nil, c.err
	}

	return &adguard.VersionInfo{Version: c.info.Version, Running: c.info.Running}, nil
}

// Outcome helpers.
var (
	on  = &fakeClient{info: &adguard.StatusInfo{ProtectionEnabled: true}}
	off = &fakeClient{info: &adguard.StatusInfo{ProtectionEnabled: false}}
	bad = &fakeClient{err: &adguard.Fault{Kind: adguard.KindNetwork, Err: testError}}
)

// newTestAggregator returns an aggregator over the named fake clients, in
// order.
func newTestAggregator(clients ...*fakeClient) (a *status.Aggregator) {
	src := &fakeSource{}
	byName := map[string]*fakeClient{}
	for i, c := range clients {
		name := string(rune('a' + i))
		byName[name] = c
		src.insts = append(src.insts, adguard.InstanceConfig{Name: name})
	}

	return status.NewAggregator(&status.Config{
		Logger: slogutil.NewDiscardLogger(),
		Source: src,
		NewClient: func(inst adguard.InstanceConfig) (c status.Client) {
			return byName[inst.Name]
		},
	})
}

func TestCombine(t *testing.T) {
	t.Parallel()

	res := func(c *fakeClient) (r status.InstanceResult) {
		return status.InstanceResult{Info: c.info, Err: c.err}
	}

	testCases := []struct {
		name    string
		results []status.InstanceResult
		want    status.Status
	}{{
		name:    "empty",
		results: nil,
		want:    status.Error,
	}, {
		name:    "all_enabled",
		results: []status.InstanceResult{res(on), res(on), res(on)},
		want:    status.Enabled,
	}, {
		name:    "one_disabled",
		results: []status.InstanceResult{res(on), res(off)},
		want:    status.Disabled,
	}, {
		name:    "disabled_first",
		results: []status.InstanceResult{res(off), res(on)},
		want:    status.Disabled,
	}, {
		name:    "disabled_beats_fault",
		results: []status.InstanceResult{res(bad), res(on), res(off)},
		want:    status.Disabled,
	}, {
		name:    "fault_without_disabled",
		results: []status.InstanceResult{res(on), res(bad)},
		want:    status.Error,
	}, {
		name:    "fault_first",
		results: []status.InstanceResult{res(bad), res(on)},
		want:    status.Error,
	}, {
		name:    "nil_info",
		results: []status.InstanceResult{{}},
		want:    status.Error,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, status.Combine(tc.results))
		})
	}
}

func TestCombine_orderIndependent(t *testing.T) {
	t.Parallel()

	base := []status.InstanceResult{
		{Info: on.info},
		{Err: bad.err},
		{Info: off.info},
		{Info: on.info},
	}

	want := status.Combine(base)
	require.Equal(t, status.Disabled, want)

	// Rotate through every starting position.
	for shift := range base {
		rotated := append(append([]status.InstanceResult{}, base[shift:]...), base[:shift]...)
		assert.Equal(t, want, status.Combine(rotated), "shift %d", shift)
	}
}

func TestAggregator_Combined(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		clients []*fakeClient
		want    status.Status
	}{{
		name:    "all_enabled",
		clients: []*fakeClient{on, on},
		want:    status.Enabled,
	}, {
		name:    "single_disabled",
		clients: []*fakeClient{off},
		want:    status.Disabled,
	}, {
		name:    "enabled_and_fault",
		clients: []*fakeClient{on, bad},
		want:    status.Error,
	}, {
		name:    "fault_and_disabled",
		clients: []*fakeClient{bad, off},
		want:    status.Disabled,
	}, {
		name:    "no_instances",
		clients: nil,
		want:    status.Error,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := newTestAggregator(tc.clients...)
			got := a.Combined(testutil.ContextWithTimeout(t, testTimeout))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAggregator_Combined_unreadableConfig(t *testing.T) {
	t.Parallel()

	a := status.NewAggregator(&status.Config{
		Logger: slogutil.NewDiscardLogger(),
		Source: &fakeSource{err: testError},
		NewClient: func(_ adguard.InstanceConfig) (c status.Client) {
			panic("must not be called")
		},
	})

	assert.Equal(t, status.Error, a.Combined(testutil.ContextWithTimeout(t, testTimeout)))
}

func TestAggregator_Results_concurrent(t *testing.T) {
	t.Parallel()

	const delay = 200 * time.Millisecond

	slowOn := &fakeClient{info: on.info, delay: delay}
	slowOff := &fakeClient{info: off.info, delay: delay}
	a := newTestAggregator(slowOn, slowOn, slowOff, slowOn)

	start := time.Now()
	results, err := a.Results(testutil.ContextWithTimeout(t, testTimeout))
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Sequential queries would take four times the delay.
	assert.Less(t, elapsed, 3*delay)

	// Results are in configuration order regardless of arrival.
	for i, r := range results {
		assert.Equal(t, string(rune('a'+i)), r.Name)
	}

	assert.Equal(t, status.Disabled, results[2].Status())
	assert.Equal(t, status.Disabled, status.Combine(results))
}

func TestAggregator_Versions(t *testing.T) {
	t.Parallel()

	v1 := &fakeClient{info: &adguard.StatusInfo{Version: "v0.107.1", Running: true}}
	a := newTestAggregator(v1, bad)

	results, err := a.Versions(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "v0.107.1", results[0].Info.Version)
	assert.Error(t, results[1].Err)
}

func TestAggregator_realInstances(t *testing.T) {
	t.Parallel()

	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"protection_enabled":true}`))
	}))
	t.Cleanup(okSrv.Close)

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(failSrv.Close)

	tr := adguard.NewTransport(&adguard.TransportConfig{})
	a := status.NewAggregator(&status.Config{
		Logger: slogutil.NewDiscardLogger(),
		Source: &fakeSource{insts: []adguard.InstanceConfig{
			{Name: "a", BaseURI: okSrv.URL, Username: "u", Password: "p"},
			{Name: "b", BaseURI: failSrv.URL, Username: "u", Password: "p"},
		}},
		NewClient: func(inst adguard.InstanceConfig) (c status.Client) {
			return adguard.NewClient(tr, inst, nil)
		},
	})

	assert.Equal(t, status.Error, a.Combined(testutil.ContextWithTimeout(t, testTimeout)))
}
