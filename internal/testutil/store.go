package testutil

import (
	"context"
	"testing"

	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreateUser inserts a user or fails the test.
func MustCreateUser(t *testing.T, s store.Store, email string) *model.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), email, model.DefaultUserName)
	if err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return u
}
