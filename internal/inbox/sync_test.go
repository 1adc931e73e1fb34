package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnguyen/perfhub/internal/model"
)

// fakeConfirmer records confirmed IDs and can be told to fail.
type fakeConfirmer struct {
	failWith error
	readIDs  []string
	allCalls int
}

func (f *fakeConfirmer) MarkNotificationRead(ctx context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.readIDs = append(f.readIDs, id)
	return nil
}

func (f *fakeConfirmer) MarkAllNotificationsRead(ctx context.Context) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.allCalls++
	return nil
}

func newSyncedStore(t *testing.T) (*Store, *fakeConfirmer, *Synchronizer) {
	t.Helper()
	s := NewStore(&fakeSource{})
	require.True(t, s.Ingest(rec("n1", model.NotificationUnread)))
	require.True(t, s.Ingest(rec("n2", model.NotificationUnread)))
	c := &fakeConfirmer{}
	return s, c, NewSynchronizer(c, s)
}

func TestMarkAsReadConfirmsBackendThenMutates(t *testing.T) {
	s, c, sync := newSyncedStore(t)

	err := sync.MarkAsRead(context.Background(), "n1")
	require.NoError(t, err)

	assert.Equal(t, []string{"n1"}, c.readIDs)
	assert.Equal(t, 1, s.UnreadCount())
	for _, r := range s.Records() {
		if r.ID == "n1" {
			assert.False(t, r.Unread())
		}
	}
}

func TestMarkAsReadFailureLeavesStoreUnchanged(t *testing.T) {
	s, c, sync := newSyncedStore(t)
	c.failWith = errors.New("backend rejected the change")
	before := s.Records()

	err := sync.MarkAsRead(context.Background(), "n1")
	require.Error(t, err)

	assert.Equal(t, before, s.Records())
	assert.Equal(t, 2, s.UnreadCount())
	assert.Empty(t, c.readIDs)
}

func TestMarkAllReadConfirmsBackendThenMutates(t *testing.T) {
	s, c, sync := newSyncedStore(t)

	err := sync.MarkAllRead(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, c.allCalls)
	assert.Equal(t, 0, s.UnreadCount())
	for _, r := range s.Records() {
		assert.False(t, r.Unread())
	}
}

func TestMarkAllReadFailureLeavesStoreUnchanged(t *testing.T) {
	s, c, sync := newSyncedStore(t)
	c.failWith = errors.New("backend unavailable")
	before := s.Records()

	err := sync.MarkAllRead(context.Background())
	require.Error(t, err)

	assert.Equal(t, before, s.Records())
	assert.Equal(t, 2, s.UnreadCount())
	assert.Equal(t, 0, c.allCalls)
}
