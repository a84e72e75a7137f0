package adguard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/ioutil"
	"github.com/c2h5oh/datasize"
)

// Transport defaults.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRespSize = 1 * datasize.MB

	hdrValApplicationJSON = "application/json"

	// forbiddenBody is what some server versions answer with instead of a
	// proper 401 or 403 status code.
	forbiddenBody = "Forbidden"
)

// TransportConfig is the configuration structure for Transport.
type TransportConfig struct {
	// UserAgent is sent with every request.  If empty, no User-Agent header is
	// set by the transport.
	UserAgent string

	// Timeout is the timeout for a single request, including reading the
	// body.  If zero, DefaultTimeout is used.
	Timeout time.Duration

	// MaxRespSize is the maximum size of a response body.  If zero,
	// DefaultMaxRespSize is used.
	MaxRespSize datasize.ByteSize
}

// Transport performs authenticated requests against instances and classifies
// the outcome into a response body or a *Fault.  It never retries.
type Transport struct {
	http        *http.Client
	userAgent   string
	maxRespSize datasize.ByteSize
}

// NewTransport returns a new transport.  conf must not be nil.
func NewTransport(conf *TransportConfig) (t *Transport) {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxSize := conf.MaxRespSize
	if maxSize == 0 {
		maxSize = DefaultMaxRespSize
	}

	return &Transport{
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent:   conf.UserAgent,
		maxRespSize: maxSize,
	}
}

// Request describes a single call to an instance.
type Request struct {
	// Body, if not nil, is encoded as JSON and sent as the request body.
	Body any

	// URL is the absolute URL of the endpoint.
	URL *url.URL

	// Method is the HTTP method.
	Method string

	// Instance is the instance name used to label faults.
	Instance string

	// Username and Password are sent using Basic authentication.
	Username string
	Password string
}

// JSON performs req and decodes the response body into v.  Any error returned
// has the underlying type *Fault.
func (t *Transport) JSON(ctx context.Context, req *Request, v any) (err error) {
	body, err := t.do(ctx, req)
	if err != nil {
		return err
	}

	err = json.Unmarshal([]byte(body), v)
	if err != nil {
		f := newFault(req.Instance, KindParse, err)
		f.Body = body

		return f
	}

	return nil
}

// Text performs req and returns the trimmed response body.  Any error returned
// has the underlying type *Fault.
func (t *Transport) Text(ctx context.Context, req *Request) (text string, err error) {
	return t.do(ctx, req)
}

// do sends req and returns the trimmed body of a successful response.
func (t *Transport) do(ctx context.Context, req *Request) (body string, err error) {
	httpReq, err := t.newHTTPRequest(ctx, req)
	if err != nil {
		return "", newFault(req.Instance, KindValidation, err)
	}

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return "", newFault(req.Instance, KindNetwork, err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	b, err := io.ReadAll(ioutil.LimitReader(resp.Body, t.maxRespSize.Bytes()))
	if err != nil {
		return "", newFault(req.Instance, KindNetwork, fmt.Errorf("reading body: %w", err))
	}

	return classify(req.Instance, resp.StatusCode, strings.TrimSpace(string(b)))
}

// newHTTPRequest builds the HTTP request for req, including the headers.
func (t *Transport) newHTTPRequest(ctx context.Context, req *Request) (r *http.Request, err error) {
	if req.URL == nil {
		return nil, errors.Error("no url")
	}

	var body io.Reader
	if req.Body != nil {
		var b []byte
		b, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}

		body = bytes.NewReader(b)
	}

	r, err = http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", req.Method, err)
	}

	r.SetBasicAuth(req.Username, req.Password)
	r.Header.Set(httphdr.ContentType, hdrValApplicationJSON)
	if t.userAgent != "" {
		r.Header.Set(httphdr.UserAgent, t.userAgent)
	}

	if id, ok := RequestIDFromContext(ctx); ok {
		r.Header.Set(httphdr.XRequestID, id)
	}

	return r, nil
}

// classify turns the status code and the trimmed body of a response into
// either the body or a *Fault.
func classify(inst string, code int, body string) (res string, err error) {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		f := newFault(inst, KindAuth, nil)
		f.Code = code

		return "", f
	case code < 200 || code > 299:
		f := newFault(inst, KindServer, nil)
		f.Code = code
		f.Body = body

		return "", f
	case body == "":
		return "", newFault(inst, KindParse, ErrEmptyBody)
	case body == forbiddenBody:
		f := newFault(inst, KindAuth, nil)
		f.Code = code

		return "", f
	default:
		return body, nil
	}
}

// requestIDKey is the context key for the request ID.
type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the request ID id, which is sent
// in the X-Request-Id header of every request made with the returned context.
func WithRequestID(ctx context.Context, id string) (withID context.Context) {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID from ctx, if there is one.
func RequestIDFromContext(ctx context.Context) (id string, ok bool) {
	id, ok = ctx.Value(requestIDKey{}).(string)

	return id, ok && id != ""
}
