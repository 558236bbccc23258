// Package http exposes the scene orchestrator over net/http: render,
// status, and rerender, plus a debug provider snapshot endpoint. It carries
// no authentication, CORS, or rate-limiting; only request decode and
// response encode around [scenes.Service].
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
	"github.com/ashfall-games/scenecaster/internal/scenes"
)

// Handler serves the scene orchestrator's HTTP surface.
type Handler struct {
	service *scenes.Service
	pool    *scenes.Pool
}

// New constructs a [Handler]. pool may be nil; when set it backs the
// /api/providers debug snapshot endpoint.
func New(service *scenes.Service, pool *scenes.Pool) *Handler {
	return &Handler{service: service, pool: pool}
}

// Register adds the orchestrator's routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/scenes", h.render)
	mux.HandleFunc("GET /api/scenes/{sceneId}", h.getStatus)
	mux.HandleFunc("POST /api/scenes/{sceneId}/rerender", h.rerender)
	if h.pool != nil {
		mux.HandleFunc("GET /api/providers", h.providers)
	}
}

// renderRequestBody is the wire shape of a render request body.
type renderRequestBody struct {
	Player          playerBody     `json:"player"`
	Genre           string         `json:"genre"`
	StoryText       string         `json:"storyText"`
	PreviousEvents  []any          `json:"previousEvents,omitempty"`
	ActiveQuest     *questBody     `json:"activeQuest,omitempty"`
	CurrentLocation string         `json:"currentLocation,omitempty"`
	GameState       *gameStateBody `json:"gameState,omitempty"`
	PreGeneratedKey string         `json:"preGeneratedKey,omitempty"`
}

type playerBody struct {
	Name  string    `json:"name"`
	Class string    `json:"class"`
	Level int       `json:"level"`
	Stats statsBody `json:"stats"`
}

type statsBody struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
	Agility      int `json:"agility"`
}

type questBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type gameStateBody struct {
	TurnCount int `json:"turnCount"`
}

func (b renderRequestBody) toRequest() scenemodel.RenderRequest {
	req := scenemodel.RenderRequest{
		Player: scenemodel.Player{
			Name:  b.Player.Name,
			Class: b.Player.Class,
			Level: b.Player.Level,
			Stats: scenemodel.Stats{
				Strength:     b.Player.Stats.Strength,
				Intelligence: b.Player.Stats.Intelligence,
				Agility:      b.Player.Stats.Agility,
			},
		},
		Genre:           b.Genre,
		StoryText:       b.StoryText,
		PreviousEvents:  b.PreviousEvents,
		CurrentLocation: b.CurrentLocation,
		PreGeneratedKey: b.PreGeneratedKey,
	}
	if b.ActiveQuest != nil {
		req.ActiveQuest = &scenemodel.Quest{Title: b.ActiveQuest.Title, Description: b.ActiveQuest.Description}
	}
	if b.GameState != nil {
		req.GameState = &scenemodel.GameState{TurnCount: b.GameState.TurnCount}
	}
	return req
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	var body renderRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	resp, err := h.service.Render(r.Context(), body.toRequest())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderResponseView(resp))
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("sceneId")
	resp, err := h.service.GetStatus(r.Context(), sceneID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponseView(resp))
}

func (h *Handler) rerender(w http.ResponseWriter, r *http.Request) {
	sceneID := r.PathValue("sceneId")
	resp, err := h.service.Rerender(r.Context(), sceneID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponseView(resp))
}

// providers serves the debug provider snapshot. Read-only; never consulted
// by the scheduler.
func (h *Handler) providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.pool.Snapshot()})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scenemodel.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scenemodel.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scenemodel.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("unhandled service error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", slog.String("error", err.Error()))
	}
}
