package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dnguyen/perfhub/internal/model"
)

// ReplaceGoals replaces all cached goals for the given scope with the
// provided set. The swap happens in a single transaction so readers
// never observe a half-replaced scope.
func (c *SQLiteCache) ReplaceGoals(ctx context.Context, scope string, goals []model.Goal) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM goals WHERE scope = ?", scope); err != nil {
		return fmt.Errorf("clearing cached goals: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO goals (
			id, scope, title, description, owner_id, owner_name,
			status, progress, manager_comment, due_date,
			created_at, updated_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing goal insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, g := range goals {
		_, err := stmt.ExecContext(ctx,
			g.ID, scope, g.Title, g.Description, g.OwnerID, g.OwnerName,
			g.Status, g.Progress, g.ManagerComment, g.DueDate,
			g.CreatedAt, g.UpdatedAt, now,
		)
		if err != nil {
			return fmt.Errorf("caching goal %s: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// GetGoals returns the cached goals for the given scope, most recently
// updated first.
func (c *SQLiteCache) GetGoals(ctx context.Context, scope string) ([]model.Goal, error) {
	rows, err := c.db.QueryxContext(ctx, `
		SELECT id, title, description, owner_id, owner_name,
		       status, progress, manager_comment, due_date,
		       created_at, updated_at
		FROM goals
		WHERE scope = ?
		ORDER BY updated_at DESC
	`, scope)
	if err != nil {
		return nil, fmt.Errorf("querying cached goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cached goal: %w", err)
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

func scanGoal(rows *sqlx.Rows) (model.Goal, error) {
	var g model.Goal
	var dueDate *time.Time

	err := rows.Scan(
		&g.ID, &g.Title, &g.Description, &g.OwnerID, &g.OwnerName,
		&g.Status, &g.Progress, &g.ManagerComment, &dueDate,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return model.Goal{}, err
	}

	g.DueDate = dueDate
	return g, nil
}
