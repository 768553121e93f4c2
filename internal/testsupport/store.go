package testsupport

import (
	"context"
	"testing"

	"garden/internal/config"
	"garden/internal/objectstore"
)

// MustOpenStore opens the object store for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *objectstore.Store {
	t.Helper()

	store, err := objectstore.Open(context.Background(), cfg.StorePath())
	if err != nil {
		t.Fatalf("objectstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
