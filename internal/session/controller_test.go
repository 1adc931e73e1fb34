package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnguyen/perfhub/internal/inbox"
	"github.com/dnguyen/perfhub/internal/model"
)

// pageSource is a scripted snapshot backend for the store.
type pageSource struct {
	mu    sync.Mutex
	items []model.NotificationRecord
	err   error
}

func (p *pageSource) FetchNotifications(
	ctx context.Context,
	page int,
	size int,
) (*model.NotificationPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	items := make([]model.NotificationRecord, len(p.items))
	copy(items, p.items)
	return &model.NotificationPage{
		Items: items,
		Total: len(items),
		Page:  page,
		Size:  size,
	}, nil
}

func (p *pageSource) set(items ...model.NotificationRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
}

func (p *pageSource) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// fakeConn is a scripted stream connection.
type fakeConn struct {
	token  string
	events chan model.NotificationRecord
	errs   chan error

	once   sync.Once
	closed chan struct{}
}

func newFakeConn(token string) *fakeConn {
	return &fakeConn{
		token:  token,
		events: make(chan model.NotificationRecord, 8),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) Events() <-chan model.NotificationRecord { return f.events }
func (f *fakeConn) Errs() <-chan error                      { return f.errs }

func (f *fakeConn) Close() {
	f.once.Do(func() { close(f.closed) })
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// drop ends the stream the way a real handle does on failure: the
// cause lands on Errs, then both channels close.
func (f *fakeConn) drop(err error) {
	f.errs <- err
	close(f.errs)
	close(f.events)
}

// fakeOpener scripts the dial. Each successful call hands out a fresh
// fakeConn tagged with the credential it was dialed with.
type fakeOpener struct {
	mu       sync.Mutex
	conns    []*fakeConn
	calls    int
	failWith error
	gate     chan struct{}
}

func (f *fakeOpener) Open(ctx context.Context, token string) (Conn, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.gate = nil
	err := f.failWith
	f.mu.Unlock()

	// Only the call that took the gate blocks; later dials proceed.
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	c := newFakeConn(token)
	f.mu.Lock()
	f.conns = append(f.conns, c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeOpener) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeOpener) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeOpener) conn(t *testing.T, i int) *fakeConn {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.conns), i, "connection %d was never opened", i)
	return f.conns[i]
}

// connFor finds the connection dialed with the given credential.
// Dials can complete out of call order, so index lookups are not
// enough when two sessions overlap.
func (f *fakeOpener) connFor(t *testing.T, token string) *fakeConn {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		if c.token == token {
			return c
		}
	}
	t.Fatalf("no connection was dialed with token %q", token)
	return nil
}

func newTestController(
	t *testing.T,
	src *pageSource,
	cfg model.StreamConfig,
) (*Controller, *fakeOpener, *inbox.Store) {
	t.Helper()
	opener := &fakeOpener{}
	st := inbox.NewStore(src)
	c := New(st, opener.Open, cfg, 20)
	t.Cleanup(c.Stop)
	return c, opener, st
}

// nextMsg runs the controller's wait command once and fails the test
// if nothing arrives in time.
func nextMsg(t *testing.T, c *Controller, within time.Duration) tea.Msg {
	t.Helper()
	got := make(chan tea.Msg, 1)
	go func() { got <- c.WaitForEvent()() }()
	select {
	case msg := <-got:
		return msg
	case <-time.After(within):
		t.Fatalf("no session message within %v", within)
		return nil
	}
}

func notif(id, status string) model.NotificationRecord {
	return model.NotificationRecord{
		ID:        id,
		Message:   "goal G-12 was approved",
		Type:      model.NotificationGoalApproval,
		Status:    status,
		Priority:  model.PriorityNormal,
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestStartSyncsThenGoesLive(t *testing.T) {
	src := &pageSource{}
	src.set(
		notif("n1", model.NotificationUnread),
		notif("n2", model.NotificationRead),
	)
	c, opener, st := newTestController(t, src, model.StreamConfig{})

	require.NoError(t, c.Start("tok-1"))

	assert.Equal(t, StateLive, c.State())
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 1, st.UnreadCount())
	assert.Equal(t, 1, opener.callCount())
}

func TestStartSnapshotFailureLeavesStreamClosed(t *testing.T) {
	src := &pageSource{}
	src.setErr(errors.New("backend down"))
	c, opener, st := newTestController(t, src, model.StreamConfig{})

	err := c.Start("tok-1")

	require.Error(t, err)
	assert.Equal(t, StateLoggedOut, c.State())
	assert.Equal(t, 0, opener.callCount(),
		"the stream must not open without a snapshot")
	assert.Equal(t, 0, st.Len())
}

func TestStartOpenFailureReturnsLoggedOut(t *testing.T) {
	src := &pageSource{}
	src.set(notif("n1", model.NotificationUnread))
	c, opener, _ := newTestController(t, src, model.StreamConfig{})
	opener.setFail(errors.New("dial refused"))

	err := c.Start("tok-1")

	require.ErrorContains(t, err, "dial refused")
	assert.Equal(t, StateLoggedOut, c.State())
}

func TestStreamedRecordReachesStoreAndUI(t *testing.T) {
	src := &pageSource{}
	c, opener, st := newTestController(t, src, model.StreamConfig{})
	require.NoError(t, c.Start("tok-1"))

	// Wire status is irrelevant; a streamed record always lands unread.
	opener.conn(t, 0).events <- notif("s1", model.NotificationRead)

	msg := nextMsg(t, c, 2*time.Second)
	rm, ok := msg.(RecordMsg)
	require.True(t, ok, "want RecordMsg, got %T", msg)
	assert.Equal(t, c.Epoch(), rm.Epoch)
	assert.Equal(t, "s1", rm.Record.ID)
	assert.Equal(t, 1, st.UnreadCount())
}

func TestDuplicateStreamRecordEmitsNothing(t *testing.T) {
	src := &pageSource{}
	src.set(notif("n1", model.NotificationUnread))
	c, opener, st := newTestController(t, src, model.StreamConfig{})
	require.NoError(t, c.Start("tok-1"))

	conn := opener.conn(t, 0)
	conn.events <- notif("n1", model.NotificationUnread)
	conn.events <- notif("n2", model.NotificationUnread)

	// The duplicate is swallowed, so the first message out is n2.
	msg := nextMsg(t, c, 2*time.Second)
	rm, ok := msg.(RecordMsg)
	require.True(t, ok, "want RecordMsg, got %T", msg)
	assert.Equal(t, "n2", rm.Record.ID)
	assert.Equal(t, 2, st.Len())
}

func TestStopTearsDownSession(t *testing.T) {
	src := &pageSource{}
	src.set(notif("n1", model.NotificationUnread))
	c, opener, st := newTestController(t, src, model.StreamConfig{})
	require.NoError(t, c.Start("tok-1"))
	before := c.Epoch()

	c.Stop()

	assert.Equal(t, StateLoggedOut, c.State())
	assert.Equal(t, 0, st.Len(), "logout must clear the store")
	assert.Greater(t, c.Epoch(), before,
		"teardown must advance the epoch so stale messages are recognizable")
	assert.True(t, opener.conn(t, 0).isClosed())

	// Stop is idempotent.
	c.Stop()
}

func TestRestartSupersedesPriorSession(t *testing.T) {
	src := &pageSource{}
	c, opener, _ := newTestController(t, src, model.StreamConfig{})
	gate := make(chan struct{})
	opener.gate = gate

	firstErr := make(chan error, 1)
	go func() { firstErr <- c.Start("tok-1") }()

	// Wait until the first dial is in flight, then let a second
	// session replace it before the dial completes.
	require.Eventually(t, func() bool {
		return opener.callCount() == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, c.Start("tok-2"))
	close(gate)

	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, errSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded Start did not return")
	}

	assert.True(t, opener.connFor(t, "tok-1").isClosed(),
		"the superseded connection must be closed")
	assert.False(t, opener.connFor(t, "tok-2").isClosed())
	assert.Equal(t, StateLive, c.State())
}

func TestDropWithoutAutoReconnectIsTerminal(t *testing.T) {
	src := &pageSource{}
	cfg := model.StreamConfig{AutoReconnect: false, MaxReconnectAttempts: 3}
	c, opener, _ := newTestController(t, src, cfg)
	require.NoError(t, c.Start("tok-1"))

	opener.conn(t, 0).drop(errors.New("connection reset"))

	msg := nextMsg(t, c, 2*time.Second)
	se, ok := msg.(StreamErrorMsg)
	require.True(t, ok, "want StreamErrorMsg, got %T", msg)
	assert.True(t, se.Terminal)
	assert.ErrorContains(t, se.Err, "connection reset")
	assert.Equal(t, 1, opener.callCount(),
		"no reconnect dial when auto reconnect is off")
	assert.Equal(t, StateLive, c.State(),
		"the session stays live with a dead channel")
}

func TestAutoReconnectRestoresTheStream(t *testing.T) {
	src := &pageSource{}
	src.set(notif("n1", model.NotificationUnread))
	cfg := model.StreamConfig{AutoReconnect: true, MaxReconnectAttempts: 2}
	c, opener, st := newTestController(t, src, cfg)
	require.NoError(t, c.Start("tok-1"))

	// A record that appears while the stream is down; the reconnect
	// re-sync must pick it up.
	src.set(
		notif("n1", model.NotificationUnread),
		notif("n2", model.NotificationUnread),
	)
	opener.conn(t, 0).drop(errors.New("connection reset"))

	msg := nextMsg(t, c, 2*time.Second)
	se, ok := msg.(StreamErrorMsg)
	require.True(t, ok, "want StreamErrorMsg, got %T", msg)
	assert.False(t, se.Terminal)

	msg = nextMsg(t, c, 2*time.Second)
	rc, ok := msg.(ReconnectingMsg)
	require.True(t, ok, "want ReconnectingMsg, got %T", msg)
	assert.Equal(t, 1, rc.Attempt)
	assert.Equal(t, time.Second, rc.Wait)

	// The first backoff is one second.
	msg = nextMsg(t, c, 3*time.Second)
	_, ok = msg.(ReconnectedMsg)
	require.True(t, ok, "want ReconnectedMsg, got %T", msg)

	assert.Equal(t, 2, opener.callCount())
	assert.Equal(t, 2, st.Len(), "reconnect must re-sync the snapshot")
	assert.Equal(t, StateLive, c.State())

	// The replacement connection is live end to end.
	opener.conn(t, 1).events <- notif("n3", model.NotificationUnread)
	msg = nextMsg(t, c, 2*time.Second)
	rm, ok := msg.(RecordMsg)
	require.True(t, ok, "want RecordMsg, got %T", msg)
	assert.Equal(t, "n3", rm.Record.ID)
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	src := &pageSource{}
	src.set(notif("n1", model.NotificationUnread))
	cfg := model.StreamConfig{AutoReconnect: true, MaxReconnectAttempts: 1}
	c, opener, _ := newTestController(t, src, cfg)
	require.NoError(t, c.Start("tok-1"))

	opener.setFail(errors.New("dial refused"))
	opener.conn(t, 0).drop(errors.New("connection reset"))

	msg := nextMsg(t, c, 2*time.Second)
	se, ok := msg.(StreamErrorMsg)
	require.True(t, ok, "want StreamErrorMsg, got %T", msg)
	assert.False(t, se.Terminal)

	msg = nextMsg(t, c, 2*time.Second)
	_, ok = msg.(ReconnectingMsg)
	require.True(t, ok, "want ReconnectingMsg, got %T", msg)

	msg = nextMsg(t, c, 3*time.Second)
	se, ok = msg.(StreamErrorMsg)
	require.True(t, ok, "want terminal StreamErrorMsg, got %T", msg)
	assert.True(t, se.Terminal)
	assert.ErrorContains(t, se.Err, "after 1 reconnect attempts")
	assert.Equal(t, 2, opener.callCount())
	assert.Equal(t, StateLive, c.State())
}

func TestStopDuringBackoffAbortsReconnect(t *testing.T) {
	src := &pageSource{}
	cfg := model.StreamConfig{AutoReconnect: true, MaxReconnectAttempts: 6}
	c, opener, _ := newTestController(t, src, cfg)
	require.NoError(t, c.Start("tok-1"))

	opener.conn(t, 0).drop(errors.New("connection reset"))

	msg := nextMsg(t, c, 2*time.Second)
	_, ok := msg.(StreamErrorMsg)
	require.True(t, ok, "want StreamErrorMsg, got %T", msg)
	msg = nextMsg(t, c, 2*time.Second)
	_, ok = msg.(ReconnectingMsg)
	require.True(t, ok, "want ReconnectingMsg, got %T", msg)

	c.Stop()

	// Past the point the first retry would have dialed.
	time.Sleep(1300 * time.Millisecond)
	assert.Equal(t, 1, opener.callCount(),
		"logout during backoff must abort the reconnect loop")
	assert.Equal(t, StateLoggedOut, c.State())
}

func TestReconnectDelayBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, reconnectDelay(tc.attempt),
			"attempt %d", tc.attempt)
	}
}
