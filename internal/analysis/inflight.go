package analysis

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDoubleCall means a second generation started for a request id that is
// still in flight. It signals a caller bug and must not be retried.
var ErrDoubleCall = errors.New("generation already in flight for request")

// DoubleCallError carries the offending request id.
type DoubleCallError struct {
	RequestID string
	Since     time.Time
}

func (e *DoubleCallError) Error() string {
	return fmt.Sprintf("%v: %s (started %s)", ErrDoubleCall, e.RequestID, e.Since.Format(time.RFC3339))
}

func (e *DoubleCallError) Unwrap() error { return ErrDoubleCall }

// DefaultInFlightMaxAge is how long an unreleased id blocks its key.
const DefaultInFlightMaxAge = 5 * time.Minute

// InFlight tracks request ids with a running generation. A duplicate
// Acquire fails immediately instead of waiting.
type InFlight struct {
	mu      sync.Mutex
	entries map[string]time.Time
	maxAge  time.Duration
	now     func() time.Time
}

// NewInFlight creates an empty guard.
func NewInFlight() *InFlight {
	return &InFlight{
		entries: make(map[string]time.Time),
		maxAge:  DefaultInFlightMaxAge,
		now:     time.Now,
	}
}

// Acquire marks id in flight. It prunes entries older than the max age
// first and returns a *DoubleCallError if id is already held.
func (f *InFlight) Acquire(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for key, started := range f.entries {
		if now.Sub(started) > f.maxAge {
			delete(f.entries, key)
		}
	}
	if started, ok := f.entries[id]; ok {
		return &DoubleCallError{RequestID: id, Since: started}
	}
	f.entries[id] = now
	return nil
}

// Release clears id.
func (f *InFlight) Release(id string) {
	f.mu.Lock()
	delete(f.entries, id)
	f.mu.Unlock()
}

// Len returns the number of ids in flight.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
