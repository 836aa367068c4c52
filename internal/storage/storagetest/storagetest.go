// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuetracker/internal/models"
	"issuetracker/internal/storage"
)

// Run exercises store created by newStore against the storage contract.
// missingID must be well formed for the store but never assigned.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store, missingID string) {
	t.Run("CreateAndList", func(t *testing.T) { testCreateAndList(t, newStore(t)) })
	t.Run("ListFilters", func(t *testing.T) { testListFilters(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t), missingID) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t), missingID) })
	t.Run("InvalidID", func(t *testing.T) { testInvalidID(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

// Seed creates an issue with the given project and title.
func Seed(t *testing.T, s storage.Store, project, title string) models.Issue {
	t.Helper()
	issue, err := models.NewIssue(project, map[string]any{
		models.FieldIssueTitle: title,
		models.FieldIssueText:  "text for " + title,
		models.FieldCreatedBy:  "tester",
	}, models.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateIssue(context.Background(), &issue))
	return issue
}

func strPtr(s string) *string { return &s }

func testCreateAndList(t *testing.T, s storage.Store) {
	ctx := context.Background()

	empty, err := s.ListIssues(ctx, models.IssueFilter{Project: strPtr("alpha")})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := Seed(t, s, "alpha", "first")
	assert.NotEmpty(t, first.ID)
	second := Seed(t, s, "alpha", "second")
	Seed(t, s, "beta", "other")

	issues, err := s.ListIssues(ctx, models.IssueFilter{Project: strPtr("alpha")})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, first.ID, issues[0].ID)
	assert.Equal(t, second.ID, issues[1].ID)

	got := issues[0]
	assert.Equal(t, "alpha", got.Project)
	assert.Equal(t, "first", got.IssueTitle)
	assert.Equal(t, "text for first", got.IssueText)
	assert.Equal(t, "tester", got.CreatedBy)
	assert.Equal(t, "", got.AssignedTo)
	assert.Equal(t, "", got.StatusText)
	assert.True(t, got.Open)
	assert.True(t, got.CreatedOn.Equal(first.CreatedOn), "created_on round trips")
	assert.True(t, got.UpdatedOn.Equal(first.UpdatedOn), "updated_on round trips")

	all, err := s.ListIssues(ctx, models.IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testListFilters(t *testing.T, s storage.Store) {
	ctx := context.Background()

	a := Seed(t, s, "proj", "a")
	b := Seed(t, s, "proj", "b")
	closed := false
	require.NoError(t, s.UpdateIssue(ctx, b.ID, models.IssueUpdate{
		AssignedTo: strPtr("alice"),
		Open:       &closed,
		UpdatedOn:  models.Now(),
	}))

	f, err := models.ParseFilter(map[string]string{"project": "proj", "open": "false"})
	require.NoError(t, err)
	issues, err := s.ListIssues(ctx, f)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, b.ID, issues[0].ID)

	f, err = models.ParseFilter(map[string]string{"project": "proj", "open": "true", "assigned_to": ""})
	require.NoError(t, err)
	issues, err = s.ListIssues(ctx, f)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, a.ID, issues[0].ID)

	f, err = models.ParseFilter(map[string]string{"_id": a.ID})
	require.NoError(t, err)
	issues, err = s.ListIssues(ctx, f)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "a", issues[0].IssueTitle)

	f, err = models.ParseFilter(map[string]string{"created_on": a.CreatedOn.Format(time.RFC3339Nano), "issue_title": "a"})
	require.NoError(t, err)
	issues, err = s.ListIssues(ctx, f)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, a.ID, issues[0].ID)

	f, err = models.ParseFilter(map[string]string{"project": "proj", "created_by": "nobody"})
	require.NoError(t, err)
	issues, err = s.ListIssues(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func testUpdate(t *testing.T, s storage.Store, missingID string) {
	ctx := context.Background()
	issue := Seed(t, s, "proj", "before")

	later := issue.UpdatedOn.Add(2 * time.Second)
	update, err := models.ParseUpdate(map[string]any{
		"issue_title": "after",
		"status_text": "In QA",
		"open":        false,
	}, later)
	require.NoError(t, err)
	require.NoError(t, s.UpdateIssue(ctx, issue.ID, update))

	issues, err := s.ListIssues(ctx, models.IssueFilter{ID: &issue.ID})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	got := issues[0]
	assert.Equal(t, "after", got.IssueTitle)
	assert.Equal(t, "In QA", got.StatusText)
	assert.Equal(t, "text for before", got.IssueText)
	assert.Equal(t, "proj", got.Project)
	assert.False(t, got.Open)
	assert.True(t, got.CreatedOn.Equal(issue.CreatedOn), "created_on unchanged")
	assert.True(t, got.UpdatedOn.Equal(later), "updated_on refreshed")
	assert.False(t, got.UpdatedOn.Before(got.CreatedOn))

	err = s.UpdateIssue(ctx, missingID, update)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDelete(t *testing.T, s storage.Store, missingID string) {
	ctx := context.Background()
	keep := Seed(t, s, "proj", "keep")
	gone := Seed(t, s, "proj", "gone")

	require.NoError(t, s.DeleteIssue(ctx, gone.ID))

	issues, err := s.ListIssues(ctx, models.IssueFilter{Project: strPtr("proj")})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, keep.ID, issues[0].ID)

	assert.ErrorIs(t, s.DeleteIssue(ctx, gone.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteIssue(ctx, missingID), storage.ErrNotFound)
}

func testInvalidID(t *testing.T, s storage.Store) {
	ctx := context.Background()
	update := models.IssueUpdate{IssueTitle: strPtr("x"), UpdatedOn: models.Now()}

	assert.ErrorIs(t, s.UpdateIssue(ctx, "not-an-id", update), storage.ErrInvalidID)
	assert.ErrorIs(t, s.DeleteIssue(ctx, "not-an-id"), storage.ErrInvalidID)

	_, err := s.ListIssues(ctx, models.IssueFilter{ID: strPtr("not-an-id")})
	assert.ErrorIs(t, err, storage.ErrInvalidID)
}
