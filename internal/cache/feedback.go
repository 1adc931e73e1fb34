package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dnguyen/perfhub/internal/model"
)

// ReplaceFeedback replaces all cached feedback for the given direction
// ("received" or "sent") with the provided set.
func (c *SQLiteCache) ReplaceFeedback(ctx context.Context, direction string, items []model.Feedback) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM feedback WHERE direction = ?", direction); err != nil {
		return fmt.Errorf("clearing cached feedback: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO feedback (
			id, direction, from_id, from_name, to_id, to_name,
			message, kind, visibility, client_ref, created_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing feedback insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, f := range items {
		_, err := stmt.ExecContext(ctx,
			f.ID, direction, f.FromID, f.FromName, f.ToID, f.ToName,
			f.Message, f.Kind, f.Visibility, f.ClientRef, f.CreatedAt, now,
		)
		if err != nil {
			return fmt.Errorf("caching feedback %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// GetFeedback returns cached feedback for the given direction, newest
// first.
func (c *SQLiteCache) GetFeedback(ctx context.Context, direction string) ([]model.Feedback, error) {
	rows, err := c.db.QueryxContext(ctx, `
		SELECT id, from_id, from_name, to_id, to_name,
		       message, kind, visibility, client_ref, created_at
		FROM feedback
		WHERE direction = ?
		ORDER BY created_at DESC
	`, direction)
	if err != nil {
		return nil, fmt.Errorf("querying cached feedback: %w", err)
	}
	defer rows.Close()

	var items []model.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cached feedback: %w", err)
		}
		items = append(items, f)
	}

	return items, rows.Err()
}

func scanFeedback(rows *sqlx.Rows) (model.Feedback, error) {
	var f model.Feedback
	err := rows.Scan(
		&f.ID, &f.FromID, &f.FromName, &f.ToID, &f.ToName,
		&f.Message, &f.Kind, &f.Visibility, &f.ClientRef, &f.CreatedAt,
	)
	if err != nil {
		return model.Feedback{}, err
	}
	return f, nil
}
