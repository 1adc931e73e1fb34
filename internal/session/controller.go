// Package session binds the notification store and the live stream to
// the authentication lifecycle: one controller, at most one live
// stream, torn down and rebuilt as the user logs in and out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnguyen/perfhub/internal/inbox"
	"github.com/dnguyen/perfhub/internal/model"
)

// State is the lifecycle state of the notification session.
type State int

const (
	StateLoggedOut State = iota
	StateSyncing
	StateLive
)

// String returns the state label shown in the header badge.
func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateLive:
		return "live"
	default:
		return "logged out"
	}
}

// RecordMsg is a tea.Msg announcing a streamed record that was just
// ingested into the store. Stale-epoch messages must be discarded.
type RecordMsg struct {
	Epoch  int
	Record model.NotificationRecord
}

// StreamErrorMsg is a tea.Msg reporting a dropped stream. Terminal
// means the controller has given up reconnecting (or reconnect is
// disabled); the session stays live with a dead channel until the
// user refreshes or logs in again.
type StreamErrorMsg struct {
	Epoch    int
	Err      error
	Terminal bool
}

// ReconnectingMsg is a tea.Msg announcing an upcoming reconnect attempt.
type ReconnectingMsg struct {
	Epoch   int
	Attempt int
	Wait    time.Duration
}

// ReconnectedMsg is a tea.Msg announcing a successful re-sync and
// stream reopen after a drop.
type ReconnectedMsg struct {
	Epoch int
}

// Conn is one live stream connection as the controller sees it.
// *stream.Handle satisfies it.
type Conn interface {
	Events() <-chan model.NotificationRecord
	Errs() <-chan error
	Close()
}

// OpenFunc dials a new stream connection for the given credential.
type OpenFunc func(ctx context.Context, token string) (Conn, error)

// errSuperseded reports that a newer session replaced this one while
// it was still starting.
var errSuperseded = errors.New("session superseded")

// Controller owns the session lifecycle. The stream handle is
// exclusively owned here; no other component opens or closes it.
type Controller struct {
	store    *inbox.Store
	open     OpenFunc
	cfg      model.StreamConfig
	pageSize int

	eventCh chan tea.Msg

	mu     gosync.Mutex
	state  State
	epoch  int
	token  string
	handle Conn
	cancel context.CancelFunc
}

// New creates a controller over the given store and stream opener.
func New(
	store *inbox.Store,
	open OpenFunc,
	cfg model.StreamConfig,
	pageSize int,
) *Controller {
	return &Controller{
		store:    store,
		open:     open,
		cfg:      cfg,
		pageSize: pageSize,
		eventCh:  make(chan tea.Msg, 32),
		state:    StateLoggedOut,
	}
}

// Start establishes the session for the given credential: any prior
// session is torn down, a fresh snapshot replaces the store, then the
// live stream opens. Blocks until both steps finish, so call it from
// a tea.Cmd. On failure the controller returns to logged out and the
// store holds whatever the snapshot left (nothing, on a fresh start).
func (c *Controller) Start(token string) error {
	c.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.token = token
	c.cancel = cancel
	c.mu.Unlock()

	if err := c.syncAndOpen(ctx, epoch, token); err != nil {
		c.mu.Lock()
		if c.epoch == epoch {
			c.state = StateLoggedOut
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
		return err
	}
	return nil
}

// Stop tears the session down: stream closed, in-flight work
// canceled, store cleared, epoch advanced so stale messages are
// recognizable. Safe to call in any state, any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	handle := c.handle
	cancel := c.cancel
	c.handle = nil
	c.cancel = nil
	c.token = ""
	c.epoch++
	c.state = StateLoggedOut
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if handle != nil {
		handle.Close()
	}
	c.store.Clear()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Epoch returns the current session epoch. Messages tagged with an
// older epoch belong to a torn-down session and must be ignored.
func (c *Controller) Epoch() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// WaitForEvent returns a tea.Cmd that waits for the next session
// event. Call it again after processing each message to keep
// listening.
func (c *Controller) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}

// syncAndOpen runs one snapshot-then-open cycle and, on success,
// hands the new connection to a pump goroutine.
func (c *Controller) syncAndOpen(
	ctx context.Context,
	epoch int,
	token string,
) error {
	c.setState(epoch, StateSyncing)

	if _, err := c.store.LoadSnapshot(ctx, 1, c.pageSize); err != nil {
		return err
	}

	h, err := c.open(ctx, token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		h.Close()
		return errSuperseded
	}
	c.handle = h
	c.state = StateLive
	c.mu.Unlock()

	go c.pump(ctx, epoch, token, h)
	return nil
}

// pump forwards stream traffic for one connection. Records go into
// the store here (the store is safe for concurrent use); the emitted
// RecordMsg only wakes the UI, so a dropped message never loses data.
func (c *Controller) pump(
	ctx context.Context,
	epoch int,
	token string,
	h Conn,
) {
	for {
		select {
		case rec, ok := <-h.Events():
			if !ok {
				// Stream ended; the terminal error, if any, is
				// buffered on Errs.
				err := <-h.Errs()
				c.streamDown(ctx, epoch, token, err)
				return
			}
			if c.store.Ingest(rec) {
				c.send(RecordMsg{Epoch: epoch, Record: rec})
			}

		case err, ok := <-h.Errs():
			if !ok {
				return
			}
			c.streamDown(ctx, epoch, token, err)
			return

		case <-ctx.Done():
			return
		}
	}
}

// streamDown handles a lost connection: report it, then either stop
// there or run the bounded reconnect loop.
func (c *Controller) streamDown(
	ctx context.Context,
	epoch int,
	token string,
	cause error,
) {
	if ctx.Err() != nil || c.Epoch() != epoch {
		// The session was torn down; the drop is expected.
		return
	}
	if cause == nil {
		cause = errors.New("notification stream closed")
	}
	log.Printf("[session] notification stream lost: %v", cause)

	if !c.cfg.AutoReconnect {
		c.send(StreamErrorMsg{Epoch: epoch, Err: cause, Terminal: true})
		return
	}

	c.send(StreamErrorMsg{Epoch: epoch, Err: cause})
	c.reconnect(ctx, epoch, token)
}

// reconnect retries the snapshot-then-open cycle with exponential
// backoff. Each successful reconnect is a full re-sync, so records
// missed while the stream was down are recovered by the snapshot.
func (c *Controller) reconnect(
	ctx context.Context,
	epoch int,
	token string,
) {
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		wait := reconnectDelay(attempt)
		c.send(ReconnectingMsg{Epoch: epoch, Attempt: attempt, Wait: wait})

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if c.Epoch() != epoch {
			return
		}

		if err := c.syncAndOpen(ctx, epoch, token); err != nil {
			log.Printf(
				"[session] reconnect attempt %d/%d failed: %v",
				attempt, c.cfg.MaxReconnectAttempts, err,
			)
			continue
		}

		c.send(ReconnectedMsg{Epoch: epoch})
		return
	}

	// Out of attempts. The session stays live with a dead channel;
	// a manual refresh or a fresh login recovers it.
	c.setState(epoch, StateLive)
	c.send(StreamErrorMsg{
		Epoch: epoch,
		Err: fmt.Errorf(
			"notification stream lost after %d reconnect attempts",
			c.cfg.MaxReconnectAttempts,
		),
		Terminal: true,
	})
}

// setState transitions the lifecycle state if the session still owns
// the controller.
func (c *Controller) setState(epoch int, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.state = state
	}
}

// send delivers a message to the UI without blocking the pump.
func (c *Controller) send(msg tea.Msg) {
	select {
	case c.eventCh <- msg:
	default:
		// Drop if the channel is full; the store already holds the
		// data, so a lost wakeup only delays the repaint.
	}
}

// reconnectDelay returns the backoff before the given attempt:
// 1s, 2s, 4s, ... capped at 30s.
func reconnectDelay(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt-1)) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
