package scenes

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashfall-games/scenecaster/internal/resilience"
	"github.com/ashfall-games/scenecaster/internal/scenemodel"
	"github.com/ashfall-games/scenecaster/internal/scenestore"
)

// Service is the facade over the coordinator and store: three thin
// operations that translate their results into the transport-facing
// response shapes, with no business logic of their own.
type Service struct {
	coordinator *Coordinator
	store       scenestore.Store
}

// NewService constructs a [Service].
func NewService(coordinator *Coordinator, store scenestore.Store) *Service {
	return &Service{coordinator: coordinator, store: store}
}

// Render implements the render operation. It fails with
// [scenemodel.ErrInvalidInput] when req.StoryText is empty; otherwise it
// drives the coordinator's synchronous render path and always succeeds at
// the Go-error level: render outcomes surface only through
// [scenemodel.RenderResponse.SceneStatus], never as a synchronous error.
func (s *Service) Render(ctx context.Context, req scenemodel.RenderRequest) (scenemodel.RenderResponse, error) {
	rec, err := s.coordinator.Render(ctx, req)
	if err != nil {
		return scenemodel.RenderResponse{}, err
	}

	return scenemodel.RenderResponse{
		Scene:           rec.View(),
		SceneID:         rec.SceneID,
		SceneStatus:     rec.Status,
		SceneAssets:     rec.Assets,
		PreGeneratedKey: rec.Descriptor.PreGeneratedKey,
	}, nil
}

// GetStatus implements the get_status operation. Fails with
// [scenemodel.ErrNotFound] if sceneID has no stored record.
func (s *Service) GetStatus(ctx context.Context, sceneID string) (scenemodel.StatusResponse, error) {
	rec, err := s.store.FindBySceneID(ctx, sceneID)
	if err != nil {
		return scenemodel.StatusResponse{}, lookupError(err, sceneID)
	}
	return toStatusResponse(rec), nil
}

// Rerender implements the rerender operation: it reads the stored render
// context for sceneID and invokes [Service.Render] against it, which
// allocates a brand-new scene id. The original record is never mutated.
// A record with no replayable context (no story text) fails with
// [scenemodel.ErrNotFound], the same as a missing record.
func (s *Service) Rerender(ctx context.Context, sceneID string) (scenemodel.StatusResponse, error) {
	rec, err := s.store.FindBySceneID(ctx, sceneID)
	if err != nil {
		return scenemodel.StatusResponse{}, lookupError(err, sceneID)
	}
	if rec.Context.StoryText == "" {
		return scenemodel.StatusResponse{}, fmt.Errorf("%w: scene %q has no stored render context", scenemodel.ErrNotFound, sceneID)
	}

	renderResp, err := s.Render(ctx, rec.Context)
	if err != nil {
		return scenemodel.StatusResponse{}, err
	}

	return scenemodel.StatusResponse{
		SceneID:     renderResp.SceneID,
		Scene:       renderResp.Scene,
		SceneStatus: renderResp.SceneStatus,
		SceneAssets: renderResp.SceneAssets,
		UpdatedAt:   renderResp.Scene.CreatedAt,
	}, nil
}

// lookupError translates store-level lookup failures into the facade's error
// taxonomy: a missing record is NotFound, an open store breaker (store
// unreachable) is ServiceUnavailable, anything else passes through.
func lookupError(err error, sceneID string) error {
	switch {
	case errors.Is(err, scenestore.ErrNotFound):
		return fmt.Errorf("%w: scene %q", scenemodel.ErrNotFound, sceneID)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return fmt.Errorf("%w: scene store unavailable", scenemodel.ErrServiceUnavailable)
	default:
		return err
	}
}

func toStatusResponse(rec scenestore.Record) scenemodel.StatusResponse {
	return scenemodel.StatusResponse{
		SceneID:     rec.SceneID,
		Scene:       rec.View(),
		SceneStatus: rec.Status,
		SceneAssets: rec.Assets,
		UpdatedAt:   rec.UpdatedAt,
	}
}
