package command_test

import (
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/tonhe/agtoggle/internal/command"
)

func TestHostOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{{
		in:   "https://Ads.Example.org/path?q=1",
		want: "ads.example.org",
	}, {
		in:   "example.org",
		want: "example.org",
	}, {
		in:   "example.org:8080\n",
		want: "example.org",
	}, {
		in:   "  ",
		want: "",
	}, {
		in:   "file:///etc/hosts",
		want: "",
	}}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, command.HostOf(tc.in))
		})
	}
}

func TestExecTab(t *testing.T) {
	t.Parallel()

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	tab := command.NewExecTab(slogutil.NewDiscardLogger(), nil, nil)

	assert.Empty(t, tab.CurrentDomain(ctx))
	assert.Equal(t, "example.org", tab.WithDomain("https://example.org/").CurrentDomain(ctx))

	// The receiver keeps its own domain.
	assert.Empty(t, tab.CurrentDomain(ctx))

	// Without a reload command the delay is not waited for.
	start := time.Now()
	tab.ReloadCurrentTab(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecTab_commands(t *testing.T) {
	t.Parallel()

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	tab := command.NewExecTab(
		slogutil.NewDiscardLogger(),
		[]string{"echo", "https://news.example.com/a"},
		[]string{"true"},
	)

	assert.Equal(t, "news.example.com", tab.CurrentDomain(ctx))

	start := time.Now()
	tab.ReloadCurrentTab(ctx, 10*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
