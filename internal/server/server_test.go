package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"fetcharr/internal/logging"
	"fetcharr/internal/media"
	"fetcharr/internal/requests"
	"fetcharr/internal/testsupport"
	"fetcharr/internal/tracker"
)

type stubCatalog struct {
	results []media.CatalogItem
	added   int
	freeTB  float64
}

func (s *stubCatalog) Search(context.Context, string, bool) ([]media.CatalogItem, error) {
	return s.results, nil
}

func (s *stubCatalog) GetByID(context.Context, int64) (media.CatalogItem, error) {
	return media.CatalogItem{}, fmt.Errorf("unexpected GetByID")
}

func (s *stubCatalog) Add(_ context.Context, item media.CatalogItem, _ bool) (media.CatalogItem, error) {
	s.added++
	item.ServiceID = int64(1000 + s.added)
	return item, nil
}

func (s *stubCatalog) FreeSpace(context.Context) (float64, error) {
	return s.freeTB, nil
}

type stubNotifier struct{}

func (stubNotifier) Notify(context.Context, int64, string) error { return nil }

type apiFixture struct {
	store   *requests.Store
	catalog *stubCatalog
	router  *gin.Engine
}

func newAPIFixture(t *testing.T, opts ...testsupport.ConfigOption) *apiFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := &stubCatalog{freeTB: 5.0}
	engine := tracker.NewEngine(cfg, store, catalog, catalog, stubNotifier{}, logging.NewNop())
	srv := New(cfg, engine, store, logging.NewNop())
	return &apiFixture{store: store, catalog: catalog, router: srv.router()}
}

func (fx *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	fx.router.ServeHTTP(recorder, req)
	return recorder
}

func createBody(id, requestorID int64, mediaType, query string) map[string]any {
	return map[string]any{
		"id":           id,
		"requestor_id": requestorID,
		"media_type":   mediaType,
		"query":        query,
	}
}

func TestCreateRequestEndpoint(t *testing.T) {
	fx := newAPIFixture(t)
	fx.catalog.results = []media.CatalogItem{
		{Title: "Dune", Year: 2021, TMDBID: 438631},
		{Title: "Dune", Year: 1984, TMDBID: 841},
	}

	resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(1, 42, "movie", "dune"), nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		ID         int64 `json:"id"`
		Candidates []struct {
			Key   int64  `json:"key"`
			Label string `json:"label"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != 1 || len(payload.Candidates) != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Candidates[0].Key != 438631 || payload.Candidates[0].Label != "Dune (2021)" {
		t.Fatalf("unexpected first candidate: %+v", payload.Candidates[0])
	}
}

func TestCreateRequestErrorMapping(t *testing.T) {
	fx := newAPIFixture(t, testsupport.WithMaxRequests(1))
	fx.catalog.results = []media.CatalogItem{{Title: "Dune", Year: 2021, TMDBID: 438631}}

	if resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(1, 42, "movie", "dune"), nil); resp.Code != http.StatusCreated {
		t.Fatalf("seed request: %d", resp.Code)
	}
	// Duplicate id.
	if resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(1, 43, "movie", "dune"), nil); resp.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.Code)
	}
	// Quota for requestor 42.
	if resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(2, 42, "movie", "dune"), nil); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("quota: expected 429, got %d", resp.Code)
	}
	// No results.
	fx.catalog.results = nil
	if resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(3, 44, "movie", "zzzz"), nil); resp.Code != http.StatusNotFound {
		t.Fatalf("no results: expected 404, got %d", resp.Code)
	}
	// Low storage.
	fx.catalog.freeTB = 0.5
	if resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(4, 45, "movie", "dune"), nil); resp.Code != http.StatusInsufficientStorage {
		t.Fatalf("storage: expected 507, got %d", resp.Code)
	}
	// Bad media type.
	fx.catalog.freeTB = 5.0
	if resp := fx.do(t, http.MethodPost, "/api/v1/requests", createBody(5, 46, "album", "dune"), nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad media type: expected 400, got %d", resp.Code)
	}
}

func TestSelectionEndpoint(t *testing.T) {
	fx := newAPIFixture(t)
	testsupport.NewPendingRequest(t, fx.store, 9, 42, media.TypeMovie, "dune", []media.CatalogItem{
		{Title: "Dune", Year: 2021, TMDBID: 438631},
	})

	resp := fx.do(t, http.MethodPost, "/api/v1/requests/9/selection", map[string]any{"key": 438631}, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if fx.catalog.added != 1 {
		t.Fatalf("expected one catalog add, got %d", fx.catalog.added)
	}

	// A repeated callback is gone, not a duplicate add.
	resp = fx.do(t, http.MethodPost, "/api/v1/requests/9/selection", map[string]any{"key": 438631}, nil)
	if resp.Code != http.StatusGone {
		t.Fatalf("repeat selection: expected 410, got %d", resp.Code)
	}
	if fx.catalog.added != 1 {
		t.Fatalf("repeat selection must not add again, got %d", fx.catalog.added)
	}

	// Unknown request id.
	resp = fx.do(t, http.MethodPost, "/api/v1/requests/999/selection", map[string]any{"key": 438631}, nil)
	if resp.Code != http.StatusGone {
		t.Fatalf("unknown request: expected 410, got %d", resp.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	fx := newAPIFixture(t)
	testsupport.NewPendingRequest(t, fx.store, 11, 42, media.TypeShow, "foundation", []media.CatalogItem{
		{Title: "Foundation", Year: 2021, TVDBID: 366972},
	})

	resp := fx.do(t, http.MethodGet, "/api/v1/requests", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Requests []struct {
			ID        int64  `json:"id"`
			MediaType string `json:"media_type"`
			State     string `json:"state"`
		} `json:"requests"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Requests) != 1 || payload.Requests[0].ID != 11 || payload.Requests[0].State != "PENDING_USER" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestAuthEnforcement(t *testing.T) {
	fx := newAPIFixture(t, testsupport.WithAPIToken("sekrit"))
	fx.catalog.results = []media.CatalogItem{{Title: "Dune", Year: 2021, TMDBID: 438631}}

	// Missing and wrong tokens are rejected.
	if resp := fx.do(t, http.MethodGet, "/api/v1/requests", nil, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.Code)
	}
	wrong := map[string]string{"Authorization": "Bearer nope"}
	if resp := fx.do(t, http.MethodGet, "/api/v1/requests", nil, wrong); resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", resp.Code)
	}

	auth := map[string]string{"Authorization": "Bearer sekrit"}
	if resp := fx.do(t, http.MethodGet, "/api/v1/requests", nil, auth); resp.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", resp.Code)
	}

	// Health stays open for probes.
	if resp := fx.do(t, http.MethodGet, "/healthz", nil, nil); resp.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.Code)
	}
}
