package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dnguyen/perfhub/internal/model"
)

// Feedback list directions.
const (
	FeedbackReceived = "received"
	FeedbackSent     = "sent"
)

// FetchFeedback retrieves feedback the user received or sent.
func (c *Client) FetchFeedback(
	ctx context.Context,
	direction string,
) ([]model.Feedback, error) {
	if direction == "" {
		direction = FeedbackReceived
	}

	var items []model.Feedback
	path := fmt.Sprintf("/api/feedback?direction=%s", direction)
	if err := c.Get(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("fetching %s feedback: %w", direction, err)
	}
	return items, nil
}

// SendFeedback posts a new piece of feedback. A ClientRef is generated
// when missing so the request stays idempotent across 429 retries.
func (c *Client) SendFeedback(
	ctx context.Context,
	fb model.Feedback,
) (*model.Feedback, error) {
	if fb.ClientRef == "" {
		fb.ClientRef = uuid.New().String()
	}

	var created model.Feedback
	if err := c.Post(ctx, "/api/feedback", fb, &created); err != nil {
		return nil, fmt.Errorf("sending feedback: %w", err)
	}
	return &created, nil
}
