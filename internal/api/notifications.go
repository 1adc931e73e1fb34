package api

import (
	"context"
	"fmt"

	"github.com/dnguyen/perfhub/internal/model"
)

// FetchNotifications retrieves one snapshot page of the user's
// notifications, newest first.
func (c *Client) FetchNotifications(
	ctx context.Context,
	page int,
	size int,
) (*model.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	path := fmt.Sprintf("/api/notifications?page=%d&size=%d", page, size)

	var result model.NotificationPage
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	return &result, nil
}

// MarkNotificationRead confirms a single notification as read with the
// backend. The local read state must only change after this succeeds.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notifications/%s", id)
	if err := c.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead confirms every notification as read with
// the backend.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.Put(ctx, "/api/notifications/mark-all-read", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}
