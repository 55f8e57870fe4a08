package journal

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errNotInitialized = errors.New("journal is not initialized")

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string][]Record)
	return nil
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	rec.ArchiveCoverage = append([]float64(nil), rec.ArchiveCoverage...)
	s.runs[rec.RunID] = append(s.runs[rec.RunID], rec)
	return nil
}

func (s *MemoryStore) Records(_ context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := append([]Record(nil), s.runs[runID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
