package inbox

import "context"

// ReadStateConfirmer confirms read-state changes with the backend.
// *api.Client satisfies it.
type ReadStateConfirmer interface {
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Synchronizer applies read-state changes pessimistically: the backend
// confirms first and the store mutates only after success, so a failed
// call leaves local state exactly as it was and needs no rollback.
type Synchronizer struct {
	confirmer ReadStateConfirmer
	store     *Store
}

// NewSynchronizer creates a synchronizer over the given confirmer and
// store.
func NewSynchronizer(confirmer ReadStateConfirmer, store *Store) *Synchronizer {
	return &Synchronizer{
		confirmer: confirmer,
		store:     store,
	}
}

// MarkAsRead confirms a single notification with the backend, then
// marks it read locally. On failure the store is untouched and the
// error goes back to the caller.
func (s *Synchronizer) MarkAsRead(ctx context.Context, id string) error {
	if err := s.confirmer.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	s.store.MarkRead(id)
	return nil
}

// MarkAllRead bulk-confirms with the backend, then marks every record
// read locally. Same failure contract as MarkAsRead.
func (s *Synchronizer) MarkAllRead(ctx context.Context) error {
	if err := s.confirmer.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	s.store.MarkAllRead()
	return nil
}
