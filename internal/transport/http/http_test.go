package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashfall-games/scenecaster/internal/scenes"
	"github.com/ashfall-games/scenecaster/internal/scenestore"
	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen"
	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen/mock"
)

func newTestHandler() *Handler {
	pool := scenes.NewPool(scenes.NewEntry("p0", "model-a", &mock.Provider{Responses: []*imagegen.Response{{
		Images: []imagegen.Image{{URL: "https://img/x.png"}},
	}}}))
	store := scenestore.NewMemStore()
	coord := scenes.NewCoordinator(pool, store, scenes.Config{})
	return New(scenes.NewService(coord, store), pool)
}

func TestRender_HappyPath(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.Register(mux)

	body := bytes.NewBufferString(`{"storyText":"Calm river mist drifts past the garden at dawn.","genre":"Fantasy"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/scenes", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp renderResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SceneStatus != "ready" {
		t.Errorf("sceneStatus = %q, want ready", resp.SceneStatus)
	}
	if resp.SceneAssets == nil || resp.SceneAssets.ImageURL != "https://img/x.png" {
		t.Errorf("sceneAssets = %+v, want populated", resp.SceneAssets)
	}

	// The wire shape carries no "prompts" key at all.
	if bytes.Contains(rec.Body.Bytes(), []byte("prompts")) {
		t.Error("response body leaked a prompts field")
	}
}

func TestRender_EmptyStoryTextIsBadRequest(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.Register(mux)

	body := bytes.NewBufferString(`{"storyText":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/scenes", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetStatus_NotFound(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/scenes/does-not-exist", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetStatus_RoundTripsRender(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.Register(mux)

	body := bytes.NewBufferString(`{"storyText":"Calm river mist drifts past the garden at dawn."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/scenes", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var renderResp renderResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &renderResp); err != nil {
		t.Fatalf("decode render response: %v", err)
	}

	statusReq := httptest.NewRequest(http.MethodGet, "/api/scenes/"+renderResp.SceneID, nil)
	statusRec := httptest.NewRecorder()
	mux.ServeHTTP(statusRec, statusReq)

	if statusRec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", statusRec.Code, statusRec.Body.String())
	}
	var statusResp statusResponseBody
	if err := json.Unmarshal(statusRec.Body.Bytes(), &statusResp); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if statusResp.SceneID != renderResp.SceneID {
		t.Errorf("SceneID = %q, want %q", statusResp.SceneID, renderResp.SceneID)
	}
}

func TestProviders_Snapshot(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}
