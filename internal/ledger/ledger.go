// Package ledger tracks per-provider request counts for the current calendar
// day. Counts are written through to the store on every mutation and zeroed
// lazily on the first access after the date rolls over.
package ledger

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/pkg/logger"
)

// DateLayout is the stored form of the last-reset date.
const DateLayout = "2006-01-02"

// Store persists the ledger between sessions. Load errors are tolerated: the
// ledger falls back to an empty state so chat keeps working.
type Store interface {
	Load() (counts map[string]int, lastReset string, err error)
	Save(counts map[string]int, lastReset string) error
}

type Ledger struct {
	mu        sync.Mutex
	store     Store
	counts    map[string]int
	lastReset string
	now       func() time.Time
}

// New loads the ledger from the store. A broken or empty store yields a fresh
// ledger rather than an error.
func New(store Store) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}

	counts, lastReset, err := store.Load()
	if err != nil {
		logger.Warn("Failed to load usage ledger, starting empty", zap.Error(err))
		counts = nil
	}
	if counts == nil {
		counts = make(map[string]int)
	}

	l.counts = counts
	l.lastReset = lastReset
	l.resetIfNewDayLocked()

	return l
}

// Get returns today's count for a provider, zero when unseen.
func (l *Ledger) Get(providerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetIfNewDayLocked()
	return l.counts[providerID]
}

// Increment adds one request to a provider's count and persists the ledger.
func (l *Ledger) Increment(providerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetIfNewDayLocked()
	l.counts[providerID]++
	l.persistLocked()
}

// ResetIfNewDay zeroes all counts when the stored date differs from today.
// Calling it twice on the same day is a no-op after the first call.
func (l *Ledger) ResetIfNewDay() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetIfNewDayLocked()
}

// Snapshot returns a copy of today's counts.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetIfNewDayLocked()

	out := make(map[string]int, len(l.counts))
	for id, n := range l.counts {
		out[id] = n
	}
	return out
}

func (l *Ledger) resetIfNewDayLocked() {
	today := l.now().Format(DateLayout)
	if l.lastReset == today {
		return
	}

	l.counts = make(map[string]int)
	l.lastReset = today
	l.persistLocked()

	logger.Info("Usage ledger reset for new day", zap.String("date", today))
}

func (l *Ledger) persistLocked() {
	if err := l.store.Save(l.counts, l.lastReset); err != nil {
		logger.Warn("Failed to persist usage ledger", zap.Error(err))
	}
}
