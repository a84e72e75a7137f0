package adguard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
)

// NormalizeBaseURI returns s with exactly one trailing slash.  It is
// idempotent.
func NormalizeBaseURI(s string) (norm string) {
	return strings.TrimRight(s, "/") + "/"
}

// parseBaseURL parses the normalized form of s and makes sure that it is an
// absolute HTTP(S) URL.
func parseBaseURL(s string) (u *url.URL, err error) {
	u, err = url.Parse(NormalizeBaseURI(s))
	if err != nil {
		return nil, err
	}

	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, fmt.Errorf("bad scheme %q", u.Scheme)
	case u.Host == "":
		return nil, errors.Error("empty host")
	default:
		return u, nil
	}
}

// endpointURL resolves the relative endpoint path against the base URL.  base
// must end with a slash so that its path is kept.
func endpointURL(base *url.URL, endpoint string) (u *url.URL) {
	return base.ResolveReference(&url.URL{Path: strings.TrimLeft(endpoint, "/")})
}
