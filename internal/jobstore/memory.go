package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/eventlens/api/internal/model"
)

// MemoryStore is an in-process Store for development and tests. A
// janitor goroutine evicts terminal records once their retention
// elapses, so long-lived processes do not accumulate finished jobs.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*model.ReelJob
	expiry    map[string]time.Time
	retention time.Duration
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &MemoryStore{
		jobs:      make(map[string]*model.ReelJob),
		expiry:    make(map[string]time.Time),
		retention: retention,
	}
}

func (s *MemoryStore) Put(ctx context.Context, job *model.ReelJob) error {
	cp := *job
	s.mu.Lock()
	s.jobs[job.ID] = &cp
	if job.Status.IsTerminal() {
		s.expiry[job.ID] = time.Now().Add(s.retention)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*model.ReelJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

// StartJanitor sweeps expired terminal records until the context ends.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, deadline := range s.expiry {
		if now.After(deadline) {
			delete(s.jobs, id)
			delete(s.expiry, id)
		}
	}
}
