// Package inbox holds the in-session notification state: an ordered
// collection of records plus the unread counter, and the synchronizer
// that reconciles read state with the backend.
package inbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/dnguyen/perfhub/internal/model"
)

// SnapshotSource fetches notification pages from the backend.
// *api.Client satisfies it.
type SnapshotSource interface {
	FetchNotifications(
		ctx context.Context,
		page int,
		size int,
	) (*model.NotificationPage, error)
}

// Store is the single source of truth for the notification list within
// a session. Records are ordered newest first. The unread counter
// always equals the number of UNREAD records; every mutation keeps
// that equality. Nothing outside the Store mutates its collection.
type Store struct {
	mu      sync.Mutex
	source  SnapshotSource
	records []model.NotificationRecord
	unread  int
	seen    map[string]bool
}

// NewStore creates an empty store backed by the given snapshot source.
func NewStore(source SnapshotSource) *Store {
	return &Store{
		source: source,
		seen:   make(map[string]bool),
	}
}

// LoadSnapshot fetches one page and replaces the collection with it
// entirely; the unread counter is recomputed from scratch over the
// fetched page. A fetch error leaves prior state untouched. Calling it
// twice against unchanged backend state yields identical results.
func (s *Store) LoadSnapshot(
	ctx context.Context,
	page int,
	size int,
) ([]model.NotificationRecord, error) {
	result, err := s.source.FetchNotifications(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("loading notification snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]model.NotificationRecord, len(result.Items))
	copy(s.records, result.Items)

	s.seen = make(map[string]bool, len(s.records))
	s.unread = 0
	for _, rec := range s.records {
		s.seen[rec.ID] = true
		if rec.Unread() {
			s.unread++
		}
	}

	return s.snapshotLocked(), nil
}

// Ingest prepends a streamed record at the head of the collection and
// increments the unread counter; streamed records are always treated
// as UNREAD regardless of the status field on the wire. Relative order
// of existing records is preserved. Duplicate IDs are dropped and
// reported with a false return, so redelivery after a reconnect cannot
// produce duplicate entries.
func (s *Store) Ingest(rec model.NotificationRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[rec.ID] {
		return false
	}
	s.seen[rec.ID] = true

	rec.Status = model.NotificationUnread
	s.records = append(
		[]model.NotificationRecord{rec}, s.records...,
	)
	s.unread++
	return true
}

// MarkRead flips the matching record from UNREAD to READ and
// decrements the counter by exactly one, floored at zero. Unknown IDs
// and records already READ are no-ops.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		if !s.records[i].Unread() {
			return
		}
		s.records[i].Status = model.NotificationRead
		if s.unread > 0 {
			s.unread--
		}
		return
	}
}

// MarkAllRead sets every record to READ and resets the counter.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		s.records[i].Status = model.NotificationRead
	}
	s.unread = 0
}

// Records returns a copy of the collection, newest first.
func (s *Store) Records() []model.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnreadCount returns the current unread counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear empties the store. Called on session teardown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.seen = make(map[string]bool)
	s.unread = 0
}

// snapshotLocked copies the record slice. Callers must hold mu.
func (s *Store) snapshotLocked() []model.NotificationRecord {
	out := make([]model.NotificationRecord, len(s.records))
	copy(out, s.records)
	return out
}
