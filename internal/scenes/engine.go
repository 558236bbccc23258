package scenes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashfall-games/scenecaster/internal/observe"
	"github.com/ashfall-games/scenecaster/internal/scenemodel"
	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen"
)

// ErrNoProviderAvailable is returned by [Attempt] when every pool entry was
// disabled, busy, or itself failed during the selection loop.
var ErrNoProviderAvailable = errors.New("scenes: no provider available")

// resolution falls back to a square default when a descriptor/config carries
// none; the render engine always sends some ImageSize.
const defaultResolution = "1024x1024"

// renderOne submits d's prompts to entry's provider and classifies the
// response: success requires a non-empty Images slice whose first record
// carries a non-empty URL. A multi-image response is accepted but only its
// first element is used (later records are not checked), with a warning logged — the upstream was asked for one
// image, so more indicates model misconfiguration, not a hard failure.
//
// metrics may be nil (tests and call sites that opt out of instrumentation);
// every recording below is guarded accordingly.
func renderOne(ctx context.Context, entry *Entry, d scenemodel.Descriptor, metrics *observe.Metrics) (*scenemodel.Assets, error) {
	assets, err := doRenderOne(ctx, entry, d)

	if metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
			metrics.RecordProviderRenderError(ctx, entry.ID)
		}
		metrics.RecordProviderRenderRequest(ctx, entry.ID, status)
	}

	return assets, err
}

func doRenderOne(ctx context.Context, entry *Entry, d scenemodel.Descriptor) (*scenemodel.Assets, error) {
	resolution := entry.Resolution
	if resolution == "" {
		resolution = defaultResolution
	}

	req := imagegen.Request{
		Prompt:         d.Prompts.Base,
		NegativePrompt: d.Prompts.Negative,
		ImageSize:      resolution,
		NumImages:      1,
	}

	resp, err := entry.Provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scenes: provider %s: %w", entry.ID, err)
	}
	if resp == nil || len(resp.Images) == 0 {
		return nil, fmt.Errorf("scenes: provider %s: empty image response", entry.ID)
	}

	img := resp.Images[0]
	if len(resp.Images) > 1 {
		slog.Warn("image-generation provider returned multiple images, using the first",
			slog.String("provider", entry.ID),
			slog.Int("count", len(resp.Images)),
		)
	}
	if img.URL == "" {
		return nil, fmt.Errorf("scenes: provider %s: image record missing url", entry.ID)
	}

	return &scenemodel.Assets{
		ImageURL:     img.URL,
		ThumbnailURL: img.ThumbnailURL,
		Width:        img.Width,
		Height:       img.Height,
		Provider:     entry.ID,
		Model:        entry.Model,
	}, nil
}

// Attempt runs the synchronous provider-selection loop: round-robin through
// the pool, skipping disabled or already-tried entries and entries whose
// lock cannot be acquired without blocking, until some entry succeeds or
// the pool is exhausted.
//
// On success the chosen entry's failure counter is reset and its assets are
// returned. On every failed attempt the entry's failure counter is
// incremented and logged; transient render failures never disable a
// provider.
//
// metrics may be nil; when set, the whole selection loop's wall-clock time
// is recorded to [observe.Metrics.RenderDuration] and every individual
// provider call is recorded through [renderOne].
func Attempt(ctx context.Context, pool *Pool, d scenemodel.Descriptor, metrics *observe.Metrics) (*scenemodel.Assets, error) {
	start := time.Now()
	assets, err := attempt(ctx, pool, d, metrics)
	if metrics != nil {
		metrics.RenderDuration.Record(ctx, time.Since(start).Seconds())
	}
	return assets, err
}

func attempt(ctx context.Context, pool *Pool, d scenemodel.Descriptor, metrics *observe.Metrics) (*scenemodel.Assets, error) {
	tried := make(map[*Entry]bool, pool.Len())
	attempts := 0

	for attempts < pool.Len() {
		entry := pool.next()
		attempts++

		if entry == nil || entry.Disabled() || tried[entry] {
			continue
		}
		if !entry.TryLock() {
			continue
		}

		tried[entry] = true
		assets, err := renderOne(ctx, entry, d, metrics)
		entry.Unlock()

		if err == nil {
			entry.RecordSuccess()
			return assets, nil
		}

		count := entry.RecordFailure()
		slog.Warn("render attempt failed",
			slog.String("provider", entry.ID),
			slog.String("scene_id", d.SceneID),
			slog.Int64("failure_count", count),
			slog.String("error", truncateError(err)),
		)
	}

	return nil, ErrNoProviderAvailable
}

// errorMessageLimit bounds the length of a provider error in log output.
const errorMessageLimit = 200

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) <= errorMessageLimit {
		return msg
	}
	return msg[:errorMessageLimit] + "..."
}
