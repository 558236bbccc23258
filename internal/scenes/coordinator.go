package scenes

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ashfall-games/scenecaster/internal/observe"
	"github.com/ashfall-games/scenecaster/internal/scenemodel"
	"github.com/ashfall-games/scenecaster/internal/scenestore"
)

// Config tunes the coordinator's render attempts and background retries,
// mirroring [config.RenderConfig].
type Config struct {
	// Timeout bounds a single provider render attempt. Defaults to 45s.
	Timeout time.Duration

	// MaxRetries is the number of background retry attempts after a failed
	// synchronous render. Defaults to 2.
	MaxRetries int

	// RetryDelay is the fixed delay between background retry attempts.
	RetryDelay time.Duration

	// Metrics records render/synthesis latency and scene-lifecycle counters.
	// Nil disables instrumentation, which is the zero value's behavior and
	// what every test in this package uses.
	Metrics *observe.Metrics
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	return c
}

// Coordinator deduplicates in-flight synchronous renders by scene id, runs
// the synchronous provider-selection loop, and schedules at most one
// background retry task per scene id when the synchronous attempt exhausts
// the pool.
type Coordinator struct {
	pool    *Pool
	store   scenestore.Store
	metrics *observe.Metrics

	// cfgMu guards cfg so a config reload ([Coordinator.UpdateConfig]) can
	// swap render tuning without racing an in-flight Render/runRetry call.
	cfgMu sync.RWMutex
	cfg   Config

	rngMu sync.Mutex
	rng   *rand.Rand

	inFlightMu sync.Mutex
	inFlight   map[string]bool

	retryMu    sync.Mutex
	retryTasks map[string]struct{}
}

// NewCoordinator constructs a [Coordinator]. pool must be non-nil; an empty
// or fully disabled pool is a valid construction (it surfaces as
// [scenemodel.StatusOffline] scenes) rather than a construction error.
func NewCoordinator(pool *Pool, store scenestore.Store, cfg Config) *Coordinator {
	return &Coordinator{
		pool:       pool,
		store:      store,
		cfg:        cfg.withDefaults(),
		metrics:    cfg.Metrics,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xC0FFEE)),
		inFlight:   make(map[string]bool),
		retryTasks: make(map[string]struct{}),
	}
}

// UpdateConfig swaps the coordinator's render tuning (timeout, max retries,
// retry delay) for in-flight use by the next Render or runRetry call. Used by
// the config watcher to apply a reloaded render section without restarting
// the process; Metrics is intentionally left untouched — instrumentation is
// wired once at startup, not reloaded.
func (c *Coordinator) UpdateConfig(cfg Config) {
	cfg.Metrics = c.metrics
	c.cfgMu.Lock()
	c.cfg = cfg.withDefaults()
	c.cfgMu.Unlock()
}

// renderConfig returns the coordinator's current render tuning.
func (c *Coordinator) renderConfig() Config {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}

// Render runs the synchronous render path: synthesize, dedup, attempt
// through the provider pool, persist, and on a failed-but-recoverable
// attempt schedule a background retry.
func (c *Coordinator) Render(ctx context.Context, req scenemodel.RenderRequest) (scenestore.Record, error) {
	ctx, span := observe.StartSpan(ctx, "scenes.Coordinator.Render")
	defer span.End()

	d, err := c.synthesize(ctx, req)
	if err != nil {
		return scenestore.Record{}, err
	}

	if rec, dup := c.claimOrReuse(ctx, d.SceneID); dup {
		return rec, nil
	}
	if c.metrics != nil {
		c.metrics.ActiveRenders.Add(ctx, 1)
	}
	defer func() {
		c.releaseInFlight(d.SceneID)
		if c.metrics != nil {
			c.metrics.ActiveRenders.Add(ctx, -1)
		}
	}()

	rec := scenestore.Record{
		SceneID:    d.SceneID,
		PlayerID:   req.Player.Name,
		Turn:       turnCount(req),
		Descriptor: d,
		Context:    req,
		Status:     scenemodel.StatusPending,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.CreatedAt,
	}

	if c.pool.Empty() || c.pool.AllDisabled() {
		rec.Status = scenemodel.StatusOffline
		c.recordStatusTransition(ctx, scenemodel.StatusOffline)
		if err := c.store.Upsert(ctx, rec); err != nil {
			slog.Warn("autosave failed for offline scene", slog.String("scene_id", d.SceneID), slog.String("error", err.Error()))
		}
		return rec, nil
	}

	renderCtx, cancel := context.WithTimeout(ctx, c.renderConfig().Timeout)
	assets, err := Attempt(renderCtx, c.pool, d, c.metrics)
	cancel()

	if err == nil {
		rec.Status = scenemodel.StatusReady
		rec.Assets = assets
		c.recordStatusTransition(ctx, scenemodel.StatusReady)
		if err := c.store.Upsert(ctx, rec); err != nil {
			slog.Warn("autosave failed for ready scene", slog.String("scene_id", d.SceneID), slog.String("error", err.Error()))
		}
		return rec, nil
	}

	c.recordStatusTransition(ctx, scenemodel.StatusPending)
	if err := c.store.Upsert(ctx, rec); err != nil {
		slog.Warn("autosave failed for pending scene", slog.String("scene_id", d.SceneID), slog.String("error", err.Error()))
	}
	c.scheduleRetry(d.SceneID, d)
	return rec, nil
}

func (c *Coordinator) recordStatusTransition(ctx context.Context, status scenemodel.Status) {
	if c.metrics != nil {
		c.metrics.RecordSceneStatusTransition(ctx, string(status))
	}
}

// synthesize draws from the coordinator's shared RNG under a mutex, then
// calls [Synthesize]. Deterministic tests call [Synthesize] directly with
// their own seeded *rand.Rand.
func (c *Coordinator) synthesize(ctx context.Context, req scenemodel.RenderRequest) (scenemodel.Descriptor, error) {
	start := time.Now()
	c.rngMu.Lock()
	d, err := Synthesize(req, c.rng)
	c.rngMu.Unlock()
	if c.metrics != nil {
		c.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
	}
	return d, err
}

// claimOrReuse is the dedup table: if sceneID is already in flight it
// returns the persisted record (if any) and true; otherwise it inserts
// sceneID and returns false. Because sceneID is freshly generated by
// synthesis on every call this cannot fire for two ordinary Render calls.
// Only Render uses this table; [Coordinator.ResumePending] goes through
// scheduleRetry and its retry-task table instead.
func (c *Coordinator) claimOrReuse(ctx context.Context, sceneID string) (scenestore.Record, bool) {
	c.inFlightMu.Lock()
	if c.inFlight[sceneID] {
		c.inFlightMu.Unlock()
		rec, err := c.store.FindBySceneID(ctx, sceneID)
		if err != nil {
			return scenestore.Record{}, true
		}
		return rec, true
	}
	c.inFlight[sceneID] = true
	c.inFlightMu.Unlock()
	return scenestore.Record{}, false
}

func (c *Coordinator) releaseInFlight(sceneID string) {
	c.inFlightMu.Lock()
	delete(c.inFlight, sceneID)
	c.inFlightMu.Unlock()
}

// scheduleRetry spawns the background retry task for sceneID, unless one is
// already tracked. At most one retry task exists per scene id.
func (c *Coordinator) scheduleRetry(sceneID string, d scenemodel.Descriptor) {
	c.retryMu.Lock()
	if _, exists := c.retryTasks[sceneID]; exists {
		c.retryMu.Unlock()
		return
	}
	c.retryTasks[sceneID] = struct{}{}
	c.retryMu.Unlock()
	if c.metrics != nil {
		c.metrics.ActiveRetryTasks.Add(context.Background(), 1)
	}

	go c.runRetry(sceneID, d)
}

// runRetry is the background retry task: it selects one provider at
// scheduling time and retries against that entry up to MaxRetries times
// with a blocking lock acquisition, since this goroutine has no caller
// waiting on it.
func (c *Coordinator) runRetry(sceneID string, d scenemodel.Descriptor) {
	ctx, span := observe.StartSpan(context.Background(), "scenes.Coordinator.runRetry")
	defer span.End()

	defer func() {
		c.retryMu.Lock()
		delete(c.retryTasks, sceneID)
		c.retryMu.Unlock()
		if c.metrics != nil {
			c.metrics.ActiveRetryTasks.Add(ctx, -1)
		}
	}()

	entry := c.pool.next()
	if entry == nil {
		c.finalizeOffline(ctx, sceneID)
		return
	}

	cfg := c.renderConfig()
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		entry.Lock()
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		assets, err := renderOne(attemptCtx, entry, d, c.metrics)
		cancel()
		entry.Unlock()

		if err == nil {
			entry.RecordSuccess()
			c.recordStatusTransition(ctx, scenemodel.StatusReady)
			if uerr := c.store.UpdateStatusAndAssets(context.Background(), sceneID, scenemodel.StatusReady, assets); uerr != nil {
				slog.Warn("autosave failed for retry success", slog.String("scene_id", sceneID), slog.String("error", uerr.Error()))
			}
			return
		}

		count := entry.RecordFailure()
		slog.Warn("background retry attempt failed",
			slog.String("scene_id", sceneID),
			slog.String("provider", entry.ID),
			slog.Int("attempt", attempt),
			slog.Int64("failure_count", count),
			slog.String("error", truncateError(err)),
		)

		if attempt < cfg.MaxRetries {
			time.Sleep(cfg.RetryDelay)
		}
	}

	c.finalizeOffline(ctx, sceneID)
}

func (c *Coordinator) finalizeOffline(ctx context.Context, sceneID string) {
	c.recordStatusTransition(ctx, scenemodel.StatusOffline)
	if err := c.store.UpdateStatusAndAssets(context.Background(), sceneID, scenemodel.StatusOffline, nil); err != nil {
		slog.Warn("autosave failed for offline finalize", slog.String("scene_id", sceneID), slog.String("error", err.Error()))
	}
}

// ResumePending is an opt-in orphan sweep: it lists scenes stuck in
// [scenemodel.StatusPending] older than olderThan and reschedules their
// retry tasks. It is never called automatically; wiring it into startup is
// left to the operator.
func (c *Coordinator) ResumePending(ctx context.Context, olderThan time.Time) (int, error) {
	pending, err := c.store.FindPending(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("scenes: resume pending: %w", err)
	}
	for _, rec := range pending {
		c.scheduleRetry(rec.SceneID, rec.Descriptor)
	}
	return len(pending), nil
}

func turnCount(req scenemodel.RenderRequest) int {
	if req.GameState == nil {
		return 0
	}
	return req.GameState.TurnCount
}
