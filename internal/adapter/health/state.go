// Package health implements component A (HealthState) and component B
// (Prober) from the design: per-upstream statistics and the concurrent
// probing subsystem that keeps them current.
package health

import (
	"sync"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
)

// State is the shared, mutex-guarded map of per-upstream HealthRecords
// described in §4.A. The Prober and Dispatcher (writers and readers) and
// the PoolManager (reader) hold a reference to the same State instance.
type State struct {
	mu      sync.Mutex
	records map[string]*domain.HealthRecord
}

func NewState() *State {
	return &State{records: make(map[string]*domain.HealthRecord)}
}

// Update atomically applies a probe or dispatch outcome to url's record,
// creating the record lazily on first use. All updates are infallible and
// lock-ordered; no I/O happens under the lock.
func (s *State) Update(url string, success bool, latencySeconds *float64, responseLength *int, errMsg string) {
	now := domain.NowEpoch(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		rec = domain.NewHealthRecord()
		s.records[url] = rec
	}
	rec.Apply(now, success, latencySeconds, responseLength, errMsg)
}

// Get returns a copy of url's record, or a fresh optimistic record if none
// exists yet (missing `available` is treated as true per §4.C step 3).
func (s *State) Get(url string) *domain.HealthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		return domain.NewHealthRecord()
	}
	return rec.Clone()
}

// Snapshot returns a copy of every tracked record; callers may not mutate
// the returned map's values.
func (s *State) Snapshot() map[string]*domain.HealthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*domain.HealthRecord, len(s.records))
	for url, rec := range s.records {
		out[url] = rec.Clone()
	}
	return out
}
