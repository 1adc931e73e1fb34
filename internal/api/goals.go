package api

import (
	"context"
	"fmt"

	"github.com/dnguyen/perfhub/internal/model"
)

// Goal list scopes.
const (
	GoalScopeMine = "mine"
	GoalScopeTeam = "team"
)

// FetchGoals retrieves goals in the given scope. GoalScopeTeam requires
// a manager role; the backend rejects it otherwise.
func (c *Client) FetchGoals(
	ctx context.Context,
	scope string,
) ([]model.Goal, error) {
	if scope == "" {
		scope = GoalScopeMine
	}

	var goals []model.Goal
	path := fmt.Sprintf("/api/goals?scope=%s", scope)
	if err := c.Get(ctx, path, &goals); err != nil {
		return nil, fmt.Errorf("fetching %s goals: %w", scope, err)
	}
	return goals, nil
}

// CreateGoal submits a new goal draft for the current user. The server
// assigns the ID and returns the stored goal.
func (c *Client) CreateGoal(
	ctx context.Context,
	goal model.Goal,
) (*model.Goal, error) {
	var created model.Goal
	if err := c.Post(ctx, "/api/goals", goal, &created); err != nil {
		return nil, fmt.Errorf("creating goal: %w", err)
	}
	return &created, nil
}

// UpdateGoalStatus moves a goal through its approval workflow
// (submit, approve, reject, complete). Comment is optional and shown
// to the goal owner.
func (c *Client) UpdateGoalStatus(
	ctx context.Context,
	id string,
	status string,
	comment string,
) error {
	path := fmt.Sprintf("/api/goals/%s/status", id)
	body := goalStatusRequest{Status: status, Comment: comment}
	if err := c.Put(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating goal %s status: %w", id, err)
	}
	return nil
}

// UpdateGoalProgress sets a goal's completion percentage.
func (c *Client) UpdateGoalProgress(
	ctx context.Context,
	id string,
	progress int,
) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	path := fmt.Sprintf("/api/goals/%s/progress", id)
	if err := c.Put(ctx, path, goalProgressRequest{Progress: progress}, nil); err != nil {
		return fmt.Errorf("updating goal %s progress: %w", id, err)
	}
	return nil
}
