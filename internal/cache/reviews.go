package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dnguyen/perfhub/internal/model"
)

// ReplaceReviews replaces all cached reviews with the provided set.
func (c *SQLiteCache) ReplaceReviews(ctx context.Context, reviews []model.Review) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews"); err != nil {
		return fmt.Errorf("clearing cached reviews: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO reviews (
			id, cycle_id, cycle_name, reviewee_id, reviewee_name,
			reviewer_id, reviewer_name, kind, status, rating,
			summary, due_date, submitted_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing review insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range reviews {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.CycleID, r.CycleName, r.RevieweeID, r.RevieweeName,
			r.ReviewerID, r.ReviewerName, r.Kind, r.Status, r.Rating,
			r.Summary, r.DueDate, r.SubmittedAt, now,
		)
		if err != nil {
			return fmt.Errorf("caching review %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetReviews returns all cached reviews, pending work first, then by
// due date.
func (c *SQLiteCache) GetReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := c.db.QueryxContext(ctx, `
		SELECT id, cycle_id, cycle_name, reviewee_id, reviewee_name,
		       reviewer_id, reviewer_name, kind, status, rating,
		       summary, due_date, submitted_at
		FROM reviews
		ORDER BY CASE status WHEN 'submitted' THEN 1 ELSE 0 END, due_date
	`)
	if err != nil {
		return nil, fmt.Errorf("querying cached reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cached review: %w", err)
		}
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

func scanReview(rows *sqlx.Rows) (model.Review, error) {
	var r model.Review
	var dueDate, submittedAt *time.Time

	err := rows.Scan(
		&r.ID, &r.CycleID, &r.CycleName, &r.RevieweeID, &r.RevieweeName,
		&r.ReviewerID, &r.ReviewerName, &r.Kind, &r.Status, &r.Rating,
		&r.Summary, &dueDate, &submittedAt,
	)
	if err != nil {
		return model.Review{}, err
	}

	r.DueDate = dueDate
	r.SubmittedAt = submittedAt
	return r, nil
}
