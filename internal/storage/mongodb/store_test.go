package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"issuetracker/internal/storage"
	"issuetracker/internal/storage/storagetest"
)

// testURI returns the deployment used by these tests, skipping when unset.
func testURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("ISSUES_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ISSUES_TEST_MONGO_URI not set")
	}
	return uri
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := testURI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database := fmt.Sprintf("issuetracker_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, uri, database, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.client.Database(database).Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestStoreContract(t *testing.T) {
	testURI(t)
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	}, primitive.NewObjectID().Hex())
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, "", "db", nil)
	assert.Error(t, err)

	_, err = Open(ctx, "mongodb://localhost:27017", "", nil)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := parseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseID("123")
	assert.ErrorIs(t, err, storage.ErrInvalidID)
}
