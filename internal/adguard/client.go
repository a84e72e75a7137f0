// Package adguard contains the HTTP transport and the typed client for a
// single AdGuard Home style instance.
package adguard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoints relative to the instance base URI.
const (
	StatusEndpoint     = "control/status"
	ProtectionEndpoint = "control/protection"
)

// AckToken is the body an instance answers with when a protection change has
// been applied.
const AckToken = "OK"

// InstanceConfig is the connection settings of a single instance.
type InstanceConfig struct {
	// Name identifies the instance in logs and in the UI.  It is not sent to
	// the instance.
	Name string

	BaseURI  string
	Username string
	Password string
}

// Validate returns a *Fault of kind KindConfig if any connection field of c is
// missing.
func (c InstanceConfig) Validate() (err error) {
	var cause error
	switch {
	case c.BaseURI == "":
		cause = ErrNoBaseURI
	case c.Username == "":
		cause = ErrNoUsername
	case c.Password == "":
		cause = ErrNoPassword
	default:
		return nil
	}

	return newFault(c.Name, KindConfig, fmt.Errorf("incomplete configuration: %w", cause))
}

// StatusInfo is the status payload of an instance.
type StatusInfo struct {
	Version                    string `json:"version"`
	ProtectionDisabledDuration int64  `json:"protection_disabled_duration"`
	ProtectionEnabled          bool   `json:"protection_enabled"`
	Running                    bool   `json:"running"`
}

// VersionInfo is the version information of an instance.
type VersionInfo struct {
	Version string `json:"version"`
	Running bool   `json:"running"`
}

// Ack is the answer of an instance to a protection change.
type Ack struct {
	Body string
}

// Acknowledged returns true if the instance confirmed the change.
func (a *Ack) Acknowledged() (ok bool) {
	return a != nil && a.Body == AckToken
}

// ListStatus is the answer of an instance to a list mutation.
type ListStatus struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Added returns true if the instance reports that the domain has been newly
// added to the list.
func (s *ListStatus) Added() (ok bool) {
	return s != nil && s.Success && strings.HasPrefix(s.Message, "Added")
}

// protectionRequest is the body of a protection change request.  Duration is
// omitted when enabling.  The field order is the order on the wire.
type protectionRequest struct {
	Enabled  bool   `json:"enabled"`
	Duration *int64 `json:"duration,omitempty"`
}

// Client performs typed operations against a single instance.  A Client is
// cheap and is meant to be created for each operation from the current
// configuration.
type Client struct {
	transport *Transport
	lists     *ListAPI
	inst      InstanceConfig
}

// NewClient returns a new client for inst.  t must not be nil.  If lists is
// nil, DefaultListAPI is used.
func NewClient(t *Transport, inst InstanceConfig, lists *ListAPI) (c *Client) {
	if lists == nil {
		lists = DefaultListAPI()
	}

	return &Client{
		transport: t,
		lists:     lists,
		inst:      inst,
	}
}

// Name returns the name of the instance.
func (c *Client) Name() (name string) {
	return c.inst.Name
}

// Status returns the current status of the instance.
func (c *Client) Status(ctx context.Context) (info *StatusInfo, err error) {
	req, err := c.newRequest(http.MethodGet, StatusEndpoint, nil)
	if err != nil {
		return nil, err
	}

	info = &StatusInfo{}
	err = c.transport.JSON(ctx, req, info)
	if err != nil {
		return nil, err
	}

	return info, nil
}

// Version returns the version of the instance.  The version is a part of the
// status payload in this protocol.
func (c *Client) Version(ctx context.Context) (info *VersionInfo, err error) {
	req, err := c.newRequest(http.MethodGet, StatusEndpoint, nil)
	if err != nil {
		return nil, err
	}

	info = &VersionInfo{}
	err = c.transport.JSON(ctx, req, info)
	if err != nil {
		return nil, err
	}

	return info, nil
}

// SetProtection enables or disables protection.  When disabling, the
// protection stays off for duration, which must not be negative.  duration is
// ignored when enabling.
func (c *Client) SetProtection(
	ctx context.Context,
	enabled bool,
	duration time.Duration,
) (ack *Ack, err error) {
	body := &protectionRequest{Enabled: enabled}
	if !enabled {
		if duration < 0 {
			return nil, newFault(c.inst.Name, KindValidation, ErrNegativeDuration)
		}

		ms := duration.Milliseconds()
		body.Duration = &ms
	}

	req, err := c.newRequest(http.MethodPost, ProtectionEndpoint, body)
	if err != nil {
		return nil, err
	}

	text, err := c.transport.Text(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Ack{Body: text}, nil
}

// AddToList adds domain to list.
func (c *Client) AddToList(ctx context.Context, list List, domain string) (s *ListStatus, err error) {
	return c.changeList(ctx, list, c.lists.AddParam, domain)
}

// RemoveFromList removes domain from list.
func (c *Client) RemoveFromList(
	ctx context.Context,
	list List,
	domain string,
) (s *ListStatus, err error) {
	return c.changeList(ctx, list, c.lists.SubParam, domain)
}

// changeList sends a list mutation with the directive parameter modeParam.
func (c *Client) changeList(
	ctx context.Context,
	list List,
	modeParam string,
	domain string,
) (s *ListStatus, err error) {
	if domain == "" {
		return nil, newFault(c.inst.Name, KindValidation, ErrEmptyDomain)
	}

	listVal, err := c.lists.value(list)
	if err != nil {
		return nil, newFault(c.inst.Name, KindValidation, err)
	}

	req, err := c.newRequest(http.MethodGet, c.lists.Path, nil)
	if err != nil {
		return nil, err
	}

	// Keep the list parameter first, some servers are picky about the order.
	req.URL.RawQuery = queryPair(c.lists.ListParam, listVal) + "&" + queryPair(modeParam, domain)

	s = &ListStatus{}
	err = c.transport.JSON(ctx, req, s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// queryPair returns the escaped "key=value" query string pair.
func queryPair(key, val string) (pair string) {
	return url.QueryEscape(key) + "=" + url.QueryEscape(val)
}

// newRequest validates the instance configuration and returns a request to
// endpoint.  It never touches the network.
func (c *Client) newRequest(method, endpoint string, body any) (req *Request, err error) {
	err = c.inst.Validate()
	if err != nil {
		return nil, err
	}

	base, err := parseBaseURL(c.inst.BaseURI)
	if err != nil {
		return nil, newFault(c.inst.Name, KindConfig, fmt.Errorf("base uri: %w", err))
	}

	return &Request{
		Body:     body,
		URL:      endpointURL(base, endpoint),
		Method:   method,
		Instance: c.inst.Name,
		Username: c.inst.Username,
		Password: c.inst.Password,
	}, nil
}
