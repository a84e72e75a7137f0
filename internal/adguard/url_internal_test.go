package adguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURI(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{{
		in:   "http://host",
		want: "http://host/",
	}, {
		in:   "http://host/",
		want: "http://host/",
	}, {
		in:   "http://host//",
		want: "http://host/",
	}, {
		in:   "https://host:3000/agh",
		want: "https://host:3000/agh/",
	}}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			got := NormalizeBaseURI(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, NormalizeBaseURI(got))
		})
	}
}

func TestEndpointURL(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"http://host", "http://host/"} {
		u, err := parseBaseURL(base)
		require.NoError(t, err)

		assert.Equal(t, "http://host/control/status", endpointURL(u, StatusEndpoint).String())
	}

	u, err := parseBaseURL("http://host/agh")
	require.NoError(t, err)

	assert.Equal(t, "http://host/agh/control/protection", endpointURL(u, ProtectionEndpoint).String())
}

func TestParseBaseURL_bad(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"ftp://host", "http://", "host"} {
		_, err := parseBaseURL(s)
		assert.Error(t, err, s)
	}
}
