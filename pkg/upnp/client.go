package upnp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// Subscription errors surfaced by the client.
var (
	// ErrNoSID is returned when a device accepts a subscription but
	// omits the SID response header.
	ErrNoSID = errors.New("no SID in subscribe response")

	// ErrDeviceBusy is returned when a device answers 503. Satellite
	// speakers reject event subscriptions this way; the caller should
	// skip the device rather than retry.
	ErrDeviceBusy = errors.New("device rejected subscription (503)")
)

// StatusError reports a non-2xx response to a GENA request.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: device returned HTTP %d", e.Op, e.Status)
}

// NetworkError wraps a transport-level failure (connect, timeout). It is
// the retriable error class: callers back off and try again.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// Lease is a granted event subscription on one device service.
type Lease struct {
	// SID is the token the device issued; notifications carry it back.
	SID string
	// Granted is the lease duration the device actually granted.
	Granted time.Duration
	// ExpiresAt is the local expiry estimate for renewal scheduling.
	ExpiresAt time.Time
}

// Client issues GENA subscription requests. Every request is bounded by
// the per-attempt timeout; a Client is safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient creates a client whose individual requests time out after
// attemptTimeout.
func NewClient(attemptTimeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: attemptTimeout}}
}

// Subscribe establishes a new lease on the event endpoint at eventPath.
// The device will deliver notifications to callbackURL for the granted
// duration. A 503 response maps to ErrDeviceBusy.
func (c *Client) Subscribe(ctx context.Context, ep model.Endpoint, eventPath, callbackURL string, lease time.Duration) (Lease, error) {
	req, err := http.NewRequestWithContext(ctx, MethodSubscribe, ep.BaseURL()+eventPath, nil)
	if err != nil {
		return Lease{}, fmt.Errorf("subscribe: %w", err)
	}
	req.Header.Set("HOST", ep.String())
	req.Header.Set(HeaderCallback, "<"+callbackURL+">")
	req.Header.Set(HeaderNT, NTEvent)
	req.Header.Set(HeaderTimeout, FormatTimeout(lease))

	return c.exchange("subscribe", req, lease)
}

// Renew extends an existing lease. Devices normally keep the SID stable
// across renewals but the returned lease carries whatever token the
// response named, so a device-side replacement is picked up too.
func (c *Client) Renew(ctx context.Context, ep model.Endpoint, eventPath, sid string, lease time.Duration) (Lease, error) {
	req, err := http.NewRequestWithContext(ctx, MethodSubscribe, ep.BaseURL()+eventPath, nil)
	if err != nil {
		return Lease{}, fmt.Errorf("renew: %w", err)
	}
	req.Header.Set("HOST", ep.String())
	req.Header.Set(HeaderSID, sid)
	req.Header.Set(HeaderTimeout, FormatTimeout(lease))

	renewed, err := c.exchange("renew", req, lease)
	if err != nil {
		return Lease{}, err
	}
	if renewed.SID == "" {
		// Some firmware omits the SID on renewal; the old one stands.
		renewed.SID = sid
	}
	return renewed, nil
}

// Unsubscribe releases a lease. Best-effort callers may ignore the error.
func (c *Client) Unsubscribe(ctx context.Context, ep model.Endpoint, eventPath, sid string) error {
	req, err := http.NewRequestWithContext(ctx, MethodUnsubscribe, ep.BaseURL()+eventPath, nil)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	req.Header.Set("HOST", ep.String())
	req.Header.Set(HeaderSID, sid)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: "unsubscribe", Err: err}
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "unsubscribe", Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) exchange(op string, req *http.Request, requested time.Duration) (Lease, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Lease{}, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return Lease{}, ErrDeviceBusy
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Lease{}, &StatusError{Op: op, Status: resp.StatusCode}
	}

	sid := resp.Header.Get(HeaderSID)
	if sid == "" && op == "subscribe" {
		return Lease{}, ErrNoSID
	}

	granted := requested
	if d, ok := ParseTimeout(resp.Header.Get(HeaderTimeout)); ok {
		granted = d
	}

	return Lease{
		SID:       sid,
		Granted:   granted,
		ExpiresAt: time.Now().Add(granted),
	}, nil
}
