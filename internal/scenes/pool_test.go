package scenes

import (
	"testing"

	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen/mock"
)

func newTestEntry(id string) *Entry {
	return NewEntry(id, "test-model", &mock.Provider{})
}

func TestPool_EmptyAndAllDisabled(t *testing.T) {
	t.Parallel()

	empty := NewPool()
	if !empty.Empty() {
		t.Error("Empty() = false for zero-entry pool")
	}
	if empty.AllDisabled() {
		t.Error("AllDisabled() = true for an empty pool, want false")
	}

	e1, e2 := newTestEntry("a"), newTestEntry("b")
	pool := NewPool(e1, e2)
	if pool.AllDisabled() {
		t.Fatal("AllDisabled() = true before any entry was disabled")
	}
	e1.Disable("missing api key")
	if pool.AllDisabled() {
		t.Fatal("AllDisabled() = true with only one of two entries disabled")
	}
	e2.Disable("missing client library")
	if !pool.AllDisabled() {
		t.Error("AllDisabled() = false after every entry was disabled")
	}
}

func TestPool_NextRoundRobins(t *testing.T) {
	t.Parallel()
	e1, e2, e3 := newTestEntry("a"), newTestEntry("b"), newTestEntry("c")
	pool := NewPool(e1, e2, e3)

	var seen []string
	for i := 0; i < 6; i++ {
		seen = append(seen, pool.next().ID)
	}
	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("next() sequence = %v, want %v", seen, want)
		}
	}
}

func TestPool_NextSkipsDisabled(t *testing.T) {
	t.Parallel()
	e1, e2, e3 := newTestEntry("a"), newTestEntry("b"), newTestEntry("c")
	pool := NewPool(e1, e2, e3)
	e2.Disable("missing api key")

	var seen []string
	for i := 0; i < 4; i++ {
		seen = append(seen, pool.next().ID)
	}
	want := []string{"a", "c", "a", "c"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("next() sequence = %v, want %v", seen, want)
		}
	}

	e1.Disable("missing api key")
	e3.Disable("missing api key")
	if got := pool.next(); got != nil {
		t.Errorf("next() = %v with every entry disabled, want nil", got.ID)
	}
}

func TestEntry_TryLockNonBlocking(t *testing.T) {
	t.Parallel()
	e := newTestEntry("a")
	if !e.TryLock() {
		t.Fatal("TryLock() = false on an unlocked entry")
	}
	if e.TryLock() {
		t.Fatal("TryLock() = true while already locked")
	}
	if !e.Busy() {
		t.Error("Busy() = false while locked")
	}
	e.Unlock()
	if e.Busy() {
		t.Error("Busy() = true after Unlock")
	}
}

func TestEntry_FailureAndDisable(t *testing.T) {
	t.Parallel()
	e := newTestEntry("a")
	if e.FailureCount() != 0 {
		t.Fatalf("FailureCount() = %d, want 0", e.FailureCount())
	}
	e.RecordFailure()
	e.RecordFailure()
	if e.FailureCount() != 2 {
		t.Fatalf("FailureCount() = %d, want 2", e.FailureCount())
	}
	e.RecordSuccess()
	if e.FailureCount() != 0 {
		t.Fatalf("FailureCount() after success = %d, want 0", e.FailureCount())
	}

	if e.Disabled() {
		t.Fatal("Disabled() = true before Disable was called")
	}
	e.Disable("missing api key")
	if !e.Disabled() {
		t.Fatal("Disabled() = false after Disable")
	}
	if e.DisabledReason() != "missing api key" {
		t.Errorf("DisabledReason() = %q, want %q", e.DisabledReason(), "missing api key")
	}
}

func TestPool_Snapshot(t *testing.T) {
	t.Parallel()
	e1 := newTestEntry("a")
	e1.RecordFailure()
	pool := NewPool(e1)

	snap := pool.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("len(snap) = %d, want 1", len(snap))
	}
	if snap[0].ID != "a" || snap[0].FailureCount != 1 || snap[0].Disabled {
		t.Errorf("snapshot = %+v, unexpected", snap[0])
	}
}

func TestPool_ReplaceSwapsMembershipAndResetsCursor(t *testing.T) {
	t.Parallel()
	e1, e2 := newTestEntry("a"), newTestEntry("b")
	pool := NewPool(e1, e2)
	pool.next() // advance the cursor past 0

	e3 := newTestEntry("c")
	pool.Replace([]*Entry{e3})

	if pool.Len() != 1 {
		t.Fatalf("Len() = %d after Replace, want 1", pool.Len())
	}
	if got := pool.next().ID; got != "c" {
		t.Errorf("next() after Replace = %q, want %q (cursor should reset)", got, "c")
	}
}
