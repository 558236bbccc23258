package scenes

import (
	"sync"
	"sync/atomic"

	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen"
)

// Entry is one provider slot in a [Pool]: a labelled image-generation backend
// together with its mutual-exclusion lock, failure counter, and disabled flag.
// Entries are constructed once at startup and never reordered; the zero value
// is not usable — build entries with [NewEntry].
type Entry struct {
	// ID labels this provider slot in logs, metrics, and the status
	// projection returned by [Pool.Snapshot].
	ID string

	// Model is the image-generation model name reported on a successful
	// render's assets.
	Model string

	// Resolution is the image size requested of this entry's provider, e.g.
	// "1024x1024". Empty falls back to the render engine's default.
	Resolution string

	// Provider is the backend this entry renders through.
	Provider imagegen.Provider

	// mu serialises every render attempt through this entry: at most one
	// Generate call is in flight at a time.
	mu sync.Mutex

	// failureCount is read by telemetry without holding mu, so it lives
	// behind sync/atomic rather than inside the mutex-guarded region.
	failureCount atomic.Int64

	// disabled is monotonic false→true and may be set without holding mu;
	// once true an entry is skipped for the remainder of the process.
	disabled atomic.Bool

	// disabledReason records why disabled was set, for the status snapshot.
	disabledReasonMu sync.Mutex
	disabledReason   string
}

// NewEntry constructs a ready-to-use provider [Entry].
func NewEntry(id, model string, provider imagegen.Provider) *Entry {
	return &Entry{ID: id, Model: model, Provider: provider}
}

// WithResolution sets e's requested image resolution and returns e, for
// chaining after [NewEntry].
func (e *Entry) WithResolution(resolution string) *Entry {
	e.Resolution = resolution
	return e
}

// TryLock attempts to acquire the entry's render lock without blocking. It
// returns false immediately if another render is already in flight through
// this entry.
func (e *Entry) TryLock() bool { return e.mu.TryLock() }

// Lock blocks until the entry's render lock is acquired. Used only by the
// background retry task, which has no caller waiting on it.
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the entry's render lock.
func (e *Entry) Unlock() { e.mu.Unlock() }

// RecordSuccess resets the entry's failure counter to zero.
func (e *Entry) RecordSuccess() { e.failureCount.Store(0) }

// RecordFailure increments the entry's failure counter and returns the new
// value. The counter is telemetry only; it is never consulted for disable
// decisions.
func (e *Entry) RecordFailure() int64 { return e.failureCount.Add(1) }

// FailureCount returns the entry's current failure count.
func (e *Entry) FailureCount() int64 { return e.failureCount.Load() }

// Disable permanently marks the entry as unusable for the remainder of the
// process. Called only for categorical misconfiguration (missing API key,
// absent client library), never for a transient render failure.
func (e *Entry) Disable(reason string) {
	e.disabled.Store(true)
	e.disabledReasonMu.Lock()
	e.disabledReason = reason
	e.disabledReasonMu.Unlock()
}

// Disabled reports whether the entry has been permanently disabled.
func (e *Entry) Disabled() bool { return e.disabled.Load() }

// DisabledReason returns the reason passed to [Entry.Disable], or "" if the
// entry has not been disabled.
func (e *Entry) DisabledReason() string {
	e.disabledReasonMu.Lock()
	defer e.disabledReasonMu.Unlock()
	return e.disabledReason
}

// Busy reports whether the entry's render lock is currently held, by
// try-acquiring it and releasing it at once. Best-effort: used only for the
// read-only status snapshot, never for scheduling decisions.
func (e *Entry) Busy() bool {
	if e.mu.TryLock() {
		e.mu.Unlock()
		return false
	}
	return true
}

// Pool is the ordered, round-robin set of image-generation provider entries.
// It is constructed once at startup from
// configuration; membership only changes later via an explicit [Pool.Replace]
// triggered by a config reload, and per-entry failure counts and disabled
// flags change over the pool's lifetime regardless.
type Pool struct {
	// entriesMu guards entries itself (not the entries' own internal
	// state), so that [Pool.Replace] can hot-swap the membership — e.g. from
	// a config file reload — without callers holding a stale slice.
	entriesMu sync.RWMutex
	entries   []*Entry

	// cursorMu guards cursor, the round-robin position.
	// Strict round-robin fairness is not required, so an ordinary mutex
	// beats an atomic-increment-mod-length scheme.
	cursorMu sync.Mutex
	cursor   int
}

// NewPool builds a [Pool] from entries, in the given order. A Pool with no
// entries is valid to construct but reports itself empty via [Pool.Empty];
// callers are expected to treat an empty pool as a startup failure or an
// "offline" scene outcome.
func NewPool(entries ...*Entry) *Pool {
	cp := make([]*Entry, len(entries))
	copy(cp, entries)
	return &Pool{entries: cp}
}

// Replace atomically swaps the pool's entries, resetting the round-robin
// cursor. Used by the config watcher to apply a reloaded provider list
// without restarting the process; in-flight renders against the old entries
// are unaffected since callers already hold their own *Entry pointer.
func (p *Pool) Replace(entries []*Entry) {
	cp := make([]*Entry, len(entries))
	copy(cp, entries)

	p.entriesMu.Lock()
	p.entries = cp
	p.entriesMu.Unlock()

	p.cursorMu.Lock()
	p.cursor = 0
	p.cursorMu.Unlock()
}

// Len returns the number of entries in the pool, including disabled ones.
func (p *Pool) Len() int {
	p.entriesMu.RLock()
	defer p.entriesMu.RUnlock()
	return len(p.entries)
}

// Empty reports whether the pool has zero entries.
func (p *Pool) Empty() bool {
	p.entriesMu.RLock()
	defer p.entriesMu.RUnlock()
	return len(p.entries) == 0
}

// AllDisabled reports whether every entry in a non-empty pool is disabled.
func (p *Pool) AllDisabled() bool {
	p.entriesMu.RLock()
	defer p.entriesMu.RUnlock()
	if len(p.entries) == 0 {
		return false
	}
	for _, e := range p.entries {
		if !e.Disabled() {
			return false
		}
	}
	return true
}

// next returns the next non-disabled entry by round-robin, advancing the
// cursor modulo the pool length. Busy entries are not skipped; observing
// busyness is the caller's responsibility. Returns nil when the pool is empty
// or every entry is disabled.
func (p *Pool) next() *Entry {
	p.entriesMu.RLock()
	defer p.entriesMu.RUnlock()
	if len(p.entries) == 0 {
		return nil
	}
	p.cursorMu.Lock()
	defer p.cursorMu.Unlock()
	for range p.entries {
		e := p.entries[p.cursor%len(p.entries)]
		p.cursor++
		if !e.Disabled() {
			return e
		}
	}
	return nil
}

// ProviderStatus is a point-in-time, read-only snapshot of one provider
// entry, for the debug surface on /api/providers. It is never used for
// scheduling.
type ProviderStatus struct {
	ID             string
	Model          string
	Busy           bool
	FailureCount   int64
	Disabled       bool
	DisabledReason string
}

// Snapshot returns a [ProviderStatus] for every entry in the pool, in pool
// order.
func (p *Pool) Snapshot() []ProviderStatus {
	p.entriesMu.RLock()
	defer p.entriesMu.RUnlock()
	out := make([]ProviderStatus, len(p.entries))
	for i, e := range p.entries {
		out[i] = ProviderStatus{
			ID:             e.ID,
			Model:          e.Model,
			Busy:           e.Busy(),
			FailureCount:   e.FailureCount(),
			Disabled:       e.Disabled(),
			DisabledReason: e.DisabledReason(),
		}
	}
	return out
}
