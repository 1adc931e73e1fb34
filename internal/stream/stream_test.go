package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/model"
)

// newStreamServer starts an SSE endpoint driven by fn and returns a
// client pointed at it.
func newStreamServer(t *testing.T, fn http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

// sseHeaders prepares the response for event streaming.
func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
}

// writeEvent writes one SSE frame and flushes it.
func writeEvent(w http.ResponseWriter, lines ...string) {
	for _, l := range lines {
		fmt.Fprintf(w, "%s\n", l)
	}
	fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// waitRecord receives one record or fails the test.
func waitRecord(t *testing.T, h *Handle) model.NotificationRecord {
	t.Helper()
	select {
	case rec, ok := <-h.Events():
		if !ok {
			t.Fatalf("events channel closed before a record arrived")
		}
		return rec
	case err := <-h.Errs():
		t.Fatalf("stream error while waiting for a record: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a record")
	}
	return model.NotificationRecord{}
}

func TestOpenDeliversStreamedRecords(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.URL.Query().Get("token"))

		sseHeaders(w)
		writeEvent(w, `data: {"id":"n1","message":"Goal G-12 approved","type":"goal-approval","status":"UNREAD","priority":"normal"}`)
		// Keepalive comments must be ignored.
		writeEvent(w, ": ping")
		writeEvent(w,
			"event: notification",
			`data: {"id":"n2",`,
			`data: "message":"Review R-7 requested","type":"review-request","status":"UNREAD","priority":"high"}`,
		)
		<-r.Context().Done()
	})

	h, err := c.Open(context.Background(), "tok")
	require.NoError(t, err)
	defer h.Close()

	first := waitRecord(t, h)
	assert.Equal(t, "n1", first.ID)
	assert.Equal(t, model.NotificationGoalApproval, first.Type)

	// Data split over multiple lines is one payload.
	second := waitRecord(t, h)
	assert.Equal(t, "n2", second.ID)
	assert.Equal(t, model.PriorityHigh, second.Priority)
}

func TestOpenDropsMalformedPayloads(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		writeEvent(w, "data: this is not json")
		writeEvent(w, `data: {"message":"no id field","status":"UNREAD"}`)
		writeEvent(w, `data: {"id":"good","message":"survives","status":"UNREAD"}`)
		<-r.Context().Done()
	})

	h, err := c.Open(context.Background(), "tok")
	require.NoError(t, err)
	defer h.Close()

	// Only the well-formed record comes through; the stream stays up.
	rec := waitRecord(t, h)
	assert.Equal(t, "good", rec.ID)
}

func TestOpenIgnoresUnknownEventKinds(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		writeEvent(w, "event: heartbeat", `data: {"id":"hb1"}`)
		writeEvent(w, `data: {"id":"n1","message":"real","status":"UNREAD"}`)
		<-r.Context().Done()
	})

	h, err := c.Open(context.Background(), "tok")
	require.NoError(t, err)
	defer h.Close()

	rec := waitRecord(t, h)
	assert.Equal(t, "n1", rec.ID)
}

func TestOpenTracksLastEventID(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		writeEvent(w, "id: evt-42", `data: {"id":"n1","message":"x","status":"UNREAD"}`)
		<-r.Context().Done()
	})

	h, err := c.Open(context.Background(), "tok")
	require.NoError(t, err)
	defer h.Close()

	waitRecord(t, h)
	assert.Equal(t, "evt-42", h.LastEventID())
}

func TestOpenRejectsUnauthorized(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Open(context.Background(), "expired-tok")
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
}

func TestOpenRejectsWrongContentType(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[]}`)
	})

	_, err := c.Open(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text/event-stream")
}

func TestOpenRedactsTokenFromDialErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(base)
	const token = "secret-credential-12345"
	_, err := c.Open(context.Background(), token)
	require.Error(t, err)

	assert.NotContains(t, err.Error(), token)
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestServerHangupDeliversTerminalError(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		writeEvent(w, `data: {"id":"n1","message":"bye","status":"UNREAD"}`)
	})

	h, err := c.Open(context.Background(), "tok")
	require.NoError(t, err)
	defer h.Close()

	waitRecord(t, h)

	select {
	case err := <-h.Errs():
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed by server")
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the hangup error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		// Flush so the buffered response header reaches the client and
		// Open's handshake completes; no events are ever written here.
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	h, err := c.Open(context.Background(), "tok")
	require.NoError(t, err)

	h.Close()
	h.Close()

	var nilHandle *Handle
	nilHandle.Close()

	// A deliberate close ends the stream without surfacing an error.
	select {
	case err, ok := <-h.Errs():
		assert.False(t, ok, "unexpected stream error after close: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("error channel not closed after Close")
	}
	select {
	case _, ok := <-h.Events():
		assert.False(t, ok, "events channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatalf("events channel not closed after Close")
	}
}
