package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dnguyen/perfhub/internal/model"
)

// FetchReviews retrieves the user's review assignments, optionally
// filtered to a single cycle.
func (c *Client) FetchReviews(
	ctx context.Context,
	cycleID string,
) ([]model.Review, error) {
	path := "/api/reviews"
	if cycleID != "" {
		path += "?cycle=" + url.QueryEscape(cycleID)
	}

	var reviews []model.Review
	if err := c.Get(ctx, path, &reviews); err != nil {
		return nil, fmt.Errorf("fetching reviews: %w", err)
	}
	return reviews, nil
}

// SubmitReview files a completed review. Once submitted the backend
// locks the assignment against further edits.
func (c *Client) SubmitReview(
	ctx context.Context,
	id string,
	rating int,
	summary string,
) error {
	path := fmt.Sprintf("/api/reviews/%s", id)
	body := reviewSubmitRequest{
		Rating:  rating,
		Summary: summary,
		Status:  model.ReviewStatusSubmitted,
	}
	if err := c.Put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("submitting review %s: %w", id, err)
	}
	return nil
}
