package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnguyen/perfhub/internal/model"
)

// newMemCache opens a throwaway in-memory cache. Other packages use
// tests/testutil for this; the cache's own tests cannot without an
// import cycle.
func newMemCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("closing cache: %v", err)
		}
	})
	return c
}

func goal(id, title string, updated time.Time) model.Goal {
	return model.Goal{
		ID:        id,
		Title:     title,
		OwnerID:   "u1",
		OwnerName: "Dana Nguyen",
		Status:    model.GoalStatusApproved,
		Progress:  40,
		CreatedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		UpdatedAt: updated,
	}
}

func TestOpenIsIdempotentAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.ReplaceGoals(
		context.Background(), "mine",
		[]model.Goal{goal("g1", "Ship the importer", time.Now().UTC())},
	))
	require.NoError(t, c.Close())

	// Reopening must skip the already-applied migrations and keep data.
	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	goals, err := c2.GetGoals(context.Background(), "mine")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "g1", goals[0].ID)
}

func TestReplaceGoalsSwapsOneScopeOnly(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, c.ReplaceGoals(ctx, "mine", []model.Goal{
		goal("g1", "Old mine goal", now),
		goal("g2", "Another old one", now),
	}))
	require.NoError(t, c.ReplaceGoals(ctx, "team", []model.Goal{
		goal("t1", "Team goal", now),
	}))

	require.NoError(t, c.ReplaceGoals(ctx, "mine", []model.Goal{
		goal("g3", "Fresh mine goal", now),
	}))

	mine, err := c.GetGoals(ctx, "mine")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "g3", mine[0].ID)

	team, err := c.GetGoals(ctx, "team")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "t1", team[0].ID, "replacing one scope must not touch the other")
}

func TestGetGoalsReturnsMostRecentlyUpdatedFirst(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceGoals(ctx, "mine", []model.Goal{
		goal("g-old", "Stale goal", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)),
		goal("g-new", "Fresh goal", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)),
	}))

	goals, err := c.GetGoals(ctx, "mine")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "g-new", goals[0].ID)
	assert.Equal(t, "g-old", goals[1].ID)
}

func TestGoalRoundTripPreservesFields(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	g := goal("g1", "Ship the importer", time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC))
	g.Description = "Migrate all legacy records"
	g.Status = model.GoalStatusRejected
	g.ManagerComment = "Needs a narrower scope"
	g.Progress = 65
	g.DueDate = &due

	require.NoError(t, c.ReplaceGoals(ctx, "mine", []model.Goal{g}))

	goals, err := c.GetGoals(ctx, "mine")
	require.NoError(t, err)
	require.Len(t, goals, 1)

	got := goals[0]
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, g.Title, got.Title)
	assert.Equal(t, g.Description, got.Description)
	assert.Equal(t, g.OwnerName, got.OwnerName)
	assert.Equal(t, g.Status, got.Status)
	assert.Equal(t, g.Progress, got.Progress)
	assert.Equal(t, g.ManagerComment, got.ManagerComment)
	require.NotNil(t, got.DueDate)
	assert.WithinDuration(t, due, *got.DueDate, time.Second)
	assert.WithinDuration(t, g.UpdatedAt, got.UpdatedAt, time.Second)
}

func TestGetReviewsPutsPendingWorkFirst(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	dueEarly := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	dueMid := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	dueLate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.ReplaceReviews(ctx, []model.Review{
		{
			ID: "r-done", CycleID: "c1", RevieweeID: "u2", ReviewerID: "u1",
			Kind: model.ReviewKindManager, Status: model.ReviewStatusSubmitted,
			Rating: 4, DueDate: &dueMid, SubmittedAt: &submitted,
		},
		{
			ID: "r-late", CycleID: "c1", RevieweeID: "u3", ReviewerID: "u1",
			Kind: model.ReviewKindPeer, Status: model.ReviewStatusPending,
			DueDate: &dueLate,
		},
		{
			ID: "r-early", CycleID: "c1", RevieweeID: "u1", ReviewerID: "u1",
			Kind: model.ReviewKindSelf, Status: model.ReviewStatusPending,
			DueDate: &dueEarly,
		},
	}))

	reviews, err := c.GetReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	// Pending assignments by due date, submitted ones last regardless.
	assert.Equal(t, "r-early", reviews[0].ID)
	assert.Equal(t, "r-late", reviews[1].ID)
	assert.Equal(t, "r-done", reviews[2].ID)
	assert.Equal(t, 4, reviews[2].Rating)
	require.NotNil(t, reviews[2].SubmittedAt)
}

func TestReplaceReviewsReplacesEverything(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceReviews(ctx, []model.Review{
		{ID: "r1", CycleID: "c1", RevieweeID: "u2", ReviewerID: "u1",
			Kind: model.ReviewKindPeer, Status: model.ReviewStatusPending},
		{ID: "r2", CycleID: "c1", RevieweeID: "u3", ReviewerID: "u1",
			Kind: model.ReviewKindPeer, Status: model.ReviewStatusPending},
	}))
	require.NoError(t, c.ReplaceReviews(ctx, []model.Review{
		{ID: "r3", CycleID: "c2", RevieweeID: "u4", ReviewerID: "u1",
			Kind: model.ReviewKindManager, Status: model.ReviewStatusPending},
	}))

	reviews, err := c.GetReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "r3", reviews[0].ID)
}

func TestFeedbackDirectionsAreIsolated(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	received := []model.Feedback{
		{
			ID: "f1", FromID: "u2", FromName: "Minh Tran", ToID: "u1",
			Message: "Great incident writeup", Kind: model.FeedbackKindPraise,
			Visibility: model.FeedbackVisibilityPublic,
			CreatedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "f2", FromID: "u3", FromName: "Ana Silva", ToID: "u1",
			Message: "Consider pairing more", Kind: model.FeedbackKindSuggestion,
			Visibility: model.FeedbackVisibilityPrivate, ClientRef: "ref-77",
			CreatedAt: time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC),
		},
	}
	sent := []model.Feedback{
		{
			ID: "f3", FromID: "u1", ToID: "u2", ToName: "Minh Tran",
			Message: "Thanks for the review", Kind: model.FeedbackKindPraise,
			Visibility: model.FeedbackVisibilityPublic,
			CreatedAt:  time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		},
	}

	require.NoError(t, c.ReplaceFeedback(ctx, "received", received))
	require.NoError(t, c.ReplaceFeedback(ctx, "sent", sent))

	gotReceived, err := c.GetFeedback(ctx, "received")
	require.NoError(t, err)
	require.Len(t, gotReceived, 2)
	// Newest first.
	assert.Equal(t, "f2", gotReceived[0].ID)
	assert.Equal(t, "ref-77", gotReceived[0].ClientRef)
	assert.Equal(t, model.FeedbackVisibilityPrivate, gotReceived[0].Visibility)
	assert.Equal(t, "f1", gotReceived[1].ID)

	gotSent, err := c.GetFeedback(ctx, "sent")
	require.NoError(t, err)
	require.Len(t, gotSent, 1)
	assert.Equal(t, "f3", gotSent[0].ID)

	// Replacing one direction leaves the other alone.
	require.NoError(t, c.ReplaceFeedback(ctx, "sent", nil))
	gotReceived, err = c.GetFeedback(ctx, "received")
	require.NoError(t, err)
	assert.Len(t, gotReceived, 2)
}
