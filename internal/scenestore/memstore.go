package scenestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// Compile-time assertion that MemStore satisfies [Store].
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory [Store]. It backs the config
// "store.kind: memory" development mode and the package's own tests. The
// zero value is ready to use.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

// Upsert implements [Store.Upsert].
func (s *MemStore) Upsert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]Record)
	}
	s.records[rec.SceneID] = rec
	return nil
}

// UpdateStatusAndAssets implements [Store.UpdateStatusAndAssets], enforcing
// the "ready wins" conditional update: once a record's status is
// [scenemodel.StatusReady], every further update, whatever its status, is a
// no-op.
func (s *MemStore) UpdateStatusAndAssets(_ context.Context, sceneID string, status scenemodel.Status, assets *scenemodel.Assets) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sceneID]
	if !ok {
		return ErrNotFound
	}
	if rec.Status == scenemodel.StatusReady {
		return nil
	}
	rec.Status = status
	rec.Assets = assets
	rec.UpdatedAt = time.Now().UTC()
	s.records[sceneID] = rec
	return nil
}

// FindBySceneID implements [Store.FindBySceneID].
func (s *MemStore) FindBySceneID(_ context.Context, sceneID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sceneID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// FindPending implements [Store.FindPending].
func (s *MemStore) FindPending(_ context.Context, olderThan time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.Status == scenemodel.StatusPending && rec.CreatedAt.Before(olderThan) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListByPlayer implements [Store.ListByPlayer].
func (s *MemStore) ListByPlayer(_ context.Context, playerID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.PlayerID == playerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
