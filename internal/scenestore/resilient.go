package scenestore

import (
	"context"
	"errors"
	"time"

	"github.com/ashfall-games/scenecaster/internal/resilience"
	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// BreakerStore decorates a [Store] with a [resilience.CircuitBreaker]. While
// the backing store is unreachable, calls fail fast with
// [resilience.ErrCircuitOpen] instead of each one waiting out its own dial
// timeout against a dead connection; half-open probes let traffic back in
// once the store recovers.
//
// [ErrNotFound] is a healthy store answering a question, so it does not count
// toward the breaker's failure threshold.
type BreakerStore struct {
	inner   Store
	breaker *resilience.CircuitBreaker
}

var _ Store = (*BreakerStore)(nil)

// WithBreaker wraps inner so every operation runs through breaker.
func WithBreaker(inner Store, breaker *resilience.CircuitBreaker) *BreakerStore {
	return &BreakerStore{inner: inner, breaker: breaker}
}

// execute routes op through the breaker, exempting ErrNotFound from failure
// accounting.
func (s *BreakerStore) execute(op func() error) error {
	var notFound bool
	err := s.breaker.Execute(func() error {
		err := op()
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil
		}
		return err
	})
	if notFound {
		return ErrNotFound
	}
	return err
}

// Upsert implements [Store.Upsert].
func (s *BreakerStore) Upsert(ctx context.Context, rec Record) error {
	return s.execute(func() error { return s.inner.Upsert(ctx, rec) })
}

// UpdateStatusAndAssets implements [Store.UpdateStatusAndAssets].
func (s *BreakerStore) UpdateStatusAndAssets(ctx context.Context, sceneID string, status scenemodel.Status, assets *scenemodel.Assets) error {
	return s.execute(func() error {
		return s.inner.UpdateStatusAndAssets(ctx, sceneID, status, assets)
	})
}

// FindBySceneID implements [Store.FindBySceneID].
func (s *BreakerStore) FindBySceneID(ctx context.Context, sceneID string) (Record, error) {
	var rec Record
	err := s.execute(func() error {
		var err error
		rec, err = s.inner.FindBySceneID(ctx, sceneID)
		return err
	})
	return rec, err
}

// FindPending implements [Store.FindPending].
func (s *BreakerStore) FindPending(ctx context.Context, olderThan time.Time) ([]Record, error) {
	var recs []Record
	err := s.execute(func() error {
		var err error
		recs, err = s.inner.FindPending(ctx, olderThan)
		return err
	})
	return recs, err
}

// ListByPlayer implements [Store.ListByPlayer].
func (s *BreakerStore) ListByPlayer(ctx context.Context, playerID string, limit int) ([]Record, error) {
	var recs []Record
	err := s.execute(func() error {
		var err error
		recs, err = s.inner.ListByPlayer(ctx, playerID, limit)
		return err
	})
	return recs, err
}
