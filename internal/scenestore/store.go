// Package scenestore persists scene descriptors, assets, and status keyed by
// scene id. A Record couples a synthesized [scenemodel.Descriptor]
// (including its prompts, which are never returned to callers) with the
// render context needed to replay a rerender and the bookkeeping fields
// (player, turn, timestamps) around it.
package scenestore

import (
	"context"
	"errors"
	"time"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// ErrNotFound is returned by [Store.FindBySceneID] when no record exists for
// the given scene id.
var ErrNotFound = errors.New("scenestore: not found")

// Record is the persisted form of a scene: the full descriptor (prompts
// included), its current status and assets, and enough of the original
// request to replay a rerender.
type Record struct {
	SceneID string

	// PlayerID is derived from the render request's player name; the service
	// surface carries no separate player identifier.
	PlayerID string

	Turn       int
	Descriptor scenemodel.Descriptor
	Context    scenemodel.RenderRequest
	Status     scenemodel.Status
	Assets     *scenemodel.Assets
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// View projects r into the public [scenemodel.SceneView] shape, dropping
// Prompts and every store-only bookkeeping field.
func (r Record) View() scenemodel.SceneView {
	return r.Descriptor.View(r.Status, r.Assets)
}

// Store is the persistence boundary for scene records. Implementations must
// be safe for concurrent use.
type Store interface {
	// Upsert atomically creates or replaces the record for rec.SceneID.
	Upsert(ctx context.Context, rec Record) error

	// UpdateStatusAndAssets applies a partial update: new status, optional
	// assets, and a refreshed UpdatedAt. The update is a conditional "ready
	// wins": whatever the new status, it must be a no-op if the stored
	// record's status is already [scenemodel.StatusReady], so a straggling
	// background retry can never overwrite fresher assets.
	UpdateStatusAndAssets(ctx context.Context, sceneID string, status scenemodel.Status, assets *scenemodel.Assets) error

	// FindBySceneID retrieves a record by its scene id. Returns [ErrNotFound]
	// if no record exists.
	FindBySceneID(ctx context.Context, sceneID string) (Record, error)

	// FindPending returns every record whose status is
	// [scenemodel.StatusPending] and whose CreatedAt predates olderThan. Used
	// only by the coordinator's opt-in ResumePending orphan sweep; never
	// called automatically at startup.
	FindPending(ctx context.Context, olderThan time.Time) ([]Record, error)

	// ListByPlayer returns a player's scenes ordered by CreatedAt descending,
	// served by the compound (player_id, created_at desc) index.
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]Record, error)
}
