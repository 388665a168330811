package ledger

import (
	"errors"
	"testing"
	"time"
)

type failingStore struct{}

func (failingStore) Load() (map[string]int, string, error) {
	return nil, "", errors.New("disk corrupt")
}

func (failingStore) Save(map[string]int, string) error {
	return errors.New("disk corrupt")
}

func TestIncrementAndGet(t *testing.T) {
	l := New(NewMemoryStore())

	if got := l.Get("groq"); got != 0 {
		t.Fatalf("expected zero count for unseen provider, got %d", got)
	}

	l.Increment("groq")
	l.Increment("groq")
	l.Increment("together")

	if got := l.Get("groq"); got != 2 {
		t.Fatalf("expected 2 for groq, got %d", got)
	}
	if got := l.Get("together"); got != 1 {
		t.Fatalf("expected 1 for together, got %d", got)
	}
}

func TestCountsPersistAcrossRestart(t *testing.T) {
	store := NewMemoryStore()

	l := New(store)
	l.Increment("groq")
	l.Increment("groq")
	l.Increment("groq")

	reloaded := New(store)
	if got := reloaded.Get("groq"); got != 3 {
		t.Fatalf("expected count to survive reload, got %d", got)
	}
}

func TestDateRolloverResetsAllCounts(t *testing.T) {
	store := NewMemoryStore()

	l := New(store)
	l.Increment("groq")
	l.Increment("huggingface")

	// Jump the clock past midnight; the next access must start fresh.
	l.now = func() time.Time {
		return time.Now().Add(25 * time.Hour)
	}

	if got := l.Get("groq"); got != 0 {
		t.Fatalf("expected reset count after rollover, got %d", got)
	}

	snap := l.Snapshot()
	if len(snap) != 0 {
		t.Fatalf("expected empty snapshot after rollover, got %+v", snap)
	}

	// The reset must be written through so a restart does not resurrect
	// yesterday's counts.
	counts, lastReset, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected persisted counts to be empty, got %+v", counts)
	}
	want := time.Now().Add(25 * time.Hour).Format(DateLayout)
	if lastReset != want {
		t.Fatalf("expected last reset %q, got %q", want, lastReset)
	}
}

func TestResetIfNewDayIsIdempotent(t *testing.T) {
	l := New(NewMemoryStore())
	l.Increment("groq")

	l.ResetIfNewDay()
	l.ResetIfNewDay()

	if got := l.Get("groq"); got != 1 {
		t.Fatalf("same-day reset must not zero counts, got %d", got)
	}
}

func TestBrokenStoreFailsOpen(t *testing.T) {
	l := New(failingStore{})

	l.Increment("groq")
	if got := l.Get("groq"); got != 1 {
		t.Fatalf("ledger must keep counting in memory when the store fails, got %d", got)
	}
}
