package testsupport

import (
	"context"
	"testing"
	"time"

	"fetcharr/internal/config"
	"fetcharr/internal/media"
	"fetcharr/internal/requests"
)

// MustOpenStore opens a requests.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *requests.Store {
	t.Helper()

	store, err := requests.Open(cfg)
	if err != nil {
		t.Fatalf("requests.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPendingRequest inserts a PENDING_USER record with the given
// candidates and returns it.
func NewPendingRequest(t testing.TB, store *requests.Store, id, requestorID int64, mediaType media.Type, name string, candidates []media.CatalogItem) *requests.Request {
	t.Helper()

	req := &requests.Request{
		ID:          id,
		RequestorID: requestorID,
		Name:        name,
		MediaType:   mediaType,
		State:       requests.StatePendingUser,
		CreatedAt:   time.Now().UTC(),
	}
	if err := req.SetSearchResults(candidates); err != nil {
		t.Fatalf("SetSearchResults: %v", err)
	}
	if err := store.Insert(context.Background(), req); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return req
}
