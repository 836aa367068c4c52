package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuetracker/internal/models"
	"issuetracker/internal/storage"
	"issuetracker/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	}, ulid.Make().String())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested", "issues.db"), nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "nested"))
	assert.NoError(t, err, "should create parent directory")
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	issue := storagetest.Seed(t, s, "proj", "persisted")
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	issues, err := s.ListIssues(context.Background(), models.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.ID, issues[0].ID)
}

func TestUpdateIssue_LowercaseID(t *testing.T) {
	s := newTestStore(t)
	issue := storagetest.Seed(t, s, "proj", "case")

	title := "renamed"
	err := s.UpdateIssue(context.Background(), strings.ToLower(issue.ID), models.IssueUpdate{
		IssueTitle: &title,
		UpdatedOn:  models.Now(),
	})
	assert.NoError(t, err)
}
