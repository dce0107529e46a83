package analytics

import (
	"context"
	"sync"
	"time"
)

const day = 24 * time.Hour

// MemoryStore keeps counters bucketed per UTC day.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[time.Time]Counters
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[time.Time]Counters)}
}

func (s *MemoryStore) RecordAttempt(_ context.Context, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(a.At).AddAttempt(a, 1)
	return nil
}

func (s *MemoryStore) RecordEngagement(_ context.Context, e Engagement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(e.At).AddEngagement(e.Hour, e.Weekday, 1)
	return nil
}

// Snapshot sums every day bucket that overlaps [since, now].
func (s *MemoryStore) Snapshot(_ context.Context, since time.Time) (Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := dayOf(since)
	out := make(Counters)
	for start, c := range s.buckets {
		if !start.Before(from) {
			out.Merge(c)
		}
	}
	return out, nil
}

// Prune drops day buckets that end at or before the cutoff. It reports the
// number of attempts dropped.
func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for start, c := range s.buckets {
		if !start.Add(day).After(before) {
			n += int64(c[KeyTotal])
			delete(s.buckets, start)
		}
	}
	return n, nil
}

func (s *MemoryStore) bucket(t time.Time) Counters {
	k := dayOf(t)
	c, ok := s.buckets[k]
	if !ok {
		c = make(Counters)
		s.buckets[k] = c
	}
	return c
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(day)
}

var _ Store = (*MemoryStore)(nil)
