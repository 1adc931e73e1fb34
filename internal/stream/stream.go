// Package stream implements the client side of the backend's live
// notification channel (Server-Sent Events). It delivers parsed
// records over a channel and reports failures without retrying;
// reconnect policy belongs to the caller.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/model"
)

// Client opens notification streams against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a stream client for the given backend root URL.
// The underlying http.Client carries no overall timeout: the response
// body is a long-lived stream that never completes. Cancellation is
// driven by the open context and by Handle.Close.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Open establishes the notification stream for the given credential
// token. The stream handshake cannot carry custom headers, so the
// token travels in the request target itself; the resulting URL is
// sensitive and must never be logged or surfaced raw, which is why
// every error path redacts it.
//
// Dial and handshake failures are returned synchronously. After a
// successful open, all failures are delivered through Handle.Errs.
func (c *Client) Open(ctx context.Context, token string) (*Handle, error) {
	target := c.baseURL + "/api/notifications/stream?token=" +
		url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full request URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactURL(uerr.URL)
		}
		return nil, fmt.Errorf("opening notification stream: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, &api.AuthError{
			Message: "stream authentication failed (401): token rejected",
		}
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf(
			"unexpected status %d opening notification stream: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)),
		)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		return nil, fmt.Errorf(
			"notification stream returned content type %q, want text/event-stream", ct,
		)
	}

	h := &Handle{
		events: make(chan model.NotificationRecord, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
		body:   resp.Body,
	}
	go h.readLoop()

	return h, nil
}

// Handle is one live stream connection. It is exclusively owned by
// whoever opened it; Events and Errs are both closed when the stream
// ends, whether by Close, by error, or by the server hanging up.
type Handle struct {
	events chan model.NotificationRecord
	errs   chan error
	done   chan struct{}
	body   io.ReadCloser

	closeOnce sync.Once

	mu          sync.Mutex
	lastEventID string
}

// Events returns the channel of parsed notification records.
func (h *Handle) Events() <-chan model.NotificationRecord {
	return h.events
}

// Errs returns the channel on which at most one terminal error is
// delivered before the handle shuts down.
func (h *Handle) Errs() <-chan error {
	return h.errs
}

// Close tears the connection down. It is idempotent and safe to call
// on a nil handle or one that already failed.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	h.closeOnce.Do(func() {
		close(h.done)
		h.body.Close()
	})
}

// LastEventID returns the most recent event ID announced by the
// server, or the empty string if none was sent.
func (h *Handle) LastEventID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastEventID
}

func (h *Handle) setLastEventID(id string) {
	h.mu.Lock()
	h.lastEventID = id
	h.mu.Unlock()
}

// closed reports whether Close has been called.
func (h *Handle) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// redactURL strips the credential from a stream URL so the remainder
// can appear in error messages safely.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable stream url)"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
