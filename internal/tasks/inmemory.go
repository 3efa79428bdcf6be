package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spiralapp/journal/internal/common"
)

type bucketKey struct {
	profileID string
	date      string
}

// InMemoryStore implements Store with maps. Used by tests and by the CLI
// when no database is configured.
type InMemoryStore struct {
	mu      sync.Mutex
	buckets map[bucketKey][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{buckets: make(map[bucketKey][]Entry)}
}

func (s *InMemoryStore) EnsureBucket(ctx context.Context, profileID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucketKey{profileID, date}
	if _, ok := s.buckets[key]; !ok {
		s.buckets[key] = nil
	}
	return nil
}

func (s *InMemoryStore) InsertEntry(ctx context.Context, profileID, date, text string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucketKey{profileID, date}
	if _, ok := s.buckets[key]; !ok {
		return nil, common.ErrNotFound
	}

	e := Entry{ID: uuid.NewString(), Task: text, Timestamp: time.Now()}
	s.buckets[key] = append(s.buckets[key], e)
	return &e, nil
}

func (s *InMemoryStore) ListEntries(ctx context.Context, profileID, date string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.buckets[bucketKey{profileID, date}]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *InMemoryStore) DeleteEntry(ctx context.Context, profileID, date, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucketKey{profileID, date}
	entries := s.buckets[key]
	for i, e := range entries {
		if e.ID == entryID {
			s.buckets[key] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (s *InMemoryStore) DeleteMatching(ctx context.Context, profileID, date, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucketKey{profileID, date}
	var kept []Entry
	deleted := 0
	for _, e := range s.buckets[key] {
		if e.Task == text {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	if _, ok := s.buckets[key]; ok {
		s.buckets[key] = kept
	}
	return deleted, nil
}

func (s *InMemoryStore) ListDates(ctx context.Context, profileID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dates []string
	for key := range s.buckets {
		if key.profileID == profileID {
			dates = append(dates, key.date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *InMemoryStore) DeleteBatch(ctx context.Context, profileID string, dates, entryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(entryIDs))
	for _, id := range entryIDs {
		ids[id] = struct{}{}
	}

	for _, date := range dates {
		key := bucketKey{profileID, date}
		var kept []Entry
		for _, e := range s.buckets[key] {
			if _, ok := ids[e.ID]; !ok {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.buckets, key)
		} else {
			s.buckets[key] = kept
		}
	}
	return nil
}
