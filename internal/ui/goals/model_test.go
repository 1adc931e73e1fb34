package goals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/keys"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/tests/testutil"
)

func testGoal(id, title string) model.Goal {
	return model.Goal{
		ID:        id,
		Title:     title,
		OwnerID:   "u1",
		Status:    model.GoalStatusApproved,
		Progress:  25,
		CreatedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLoadGoalsStoresBackendResultsInCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/goals", r.URL.Path)
			assert.Equal(t, api.GoalScopeMine, r.URL.Query().Get("scope"))
			json.NewEncoder(w).Encode([]model.Goal{
				testGoal("g1", "Ship the importer"),
			})
		}))
	t.Cleanup(srv.Close)

	cch := testutil.NewTestCache(t)
	m := New(api.NewClient(srv.URL, "tok-1"), cch, keys.DefaultKeyMap(), 80, 24)

	msg := m.loadGoals()()
	loaded, ok := msg.(goalsLoadedMsg)
	require.True(t, ok, "want goalsLoadedMsg, got %T", msg)
	require.NoError(t, loaded.err)
	assert.False(t, loaded.offline)
	require.Len(t, loaded.goals, 1)

	cached, err := cch.GetGoals(context.Background(), api.GoalScopeMine)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "g1", cached[0].ID)
}

func TestLoadGoalsFallsBackToCacheWhenBackendIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	cch := testutil.NewTestCache(t)
	require.NoError(t, cch.ReplaceGoals(
		context.Background(), api.GoalScopeMine,
		[]model.Goal{testGoal("g1", "Ship the importer")},
	))

	m := New(api.NewClient(baseURL, "tok-1"), cch, keys.DefaultKeyMap(), 80, 24)

	msg := m.loadGoals()()
	loaded, ok := msg.(goalsLoadedMsg)
	require.True(t, ok, "want goalsLoadedMsg, got %T", msg)
	require.NoError(t, loaded.err)
	assert.True(t, loaded.offline, "cached data must be flagged as offline")
	require.Len(t, loaded.goals, 1)
	assert.Equal(t, "g1", loaded.goals[0].ID)
}

func TestLoadGoalsSurfacesErrorWhenCacheIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	m := New(
		api.NewClient(baseURL, "tok-1"),
		testutil.NewTestCache(t),
		keys.DefaultKeyMap(), 80, 24,
	)

	msg := m.loadGoals()()
	loaded, ok := msg.(goalsLoadedMsg)
	require.True(t, ok, "want goalsLoadedMsg, got %T", msg)
	require.Error(t, loaded.err)
	assert.Empty(t, loaded.goals)
}

func TestFocusGoalAppliesOnceLoaded(t *testing.T) {
	m := New(nil, nil, keys.DefaultKeyMap(), 80, 24)
	m.FocusGoal("g2")

	m, _ = m.Update(goalsLoadedMsg{goals: []model.Goal{
		testGoal("g1", "First"),
		testGoal("g2", "Second"),
	}})

	got, ok := m.selectedGoal()
	require.True(t, ok)
	assert.Equal(t, "g2", got.ID)
}
