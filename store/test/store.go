package test

import (
	"context"
	"testing"

	"github.com/himigchat/himig/internal/profile"
	"github.com/himigchat/himig/store"
	"github.com/himigchat/himig/store/db"
)

// NewTestingStore returns a store backed by a fresh SQLite database under the
// test's temp directory, with the schema applied.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   dir,
		DSN:    dir + "/himig_test.db",
	}

	dbDriver, err := db.NewDBDriver(testProfile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	testStore := store.New(dbDriver, testProfile)
	if err := testStore.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	t.Cleanup(func() {
		if err := testStore.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})

	return testStore
}

// CreateTestingUser inserts a user for tests that need an identity anchor.
func CreateTestingUser(ctx context.Context, t *testing.T, s *store.Store, username string) *store.User {
	t.Helper()

	user, err := s.CreateUser(ctx, &store.User{
		Username:     username,
		Email:        username + "@example.com",
		Nickname:     username,
		PasswordHash: "test-verifier",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}
