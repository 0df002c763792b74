package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepInterval = 5 * time.Minute

// MemoryStore keeps records in process memory. Expired records are hidden on
// read and removed by a background sweep.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]Record
	logger    *zap.Logger
	now       func() time.Time
	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryStore creates an in-memory store and starts its sweeper.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		records:   make(map[uuid.UUID]Record),
		logger:    logger,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, record := range s.records {
		if record.Expired(now) {
			delete(s.records, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("expired simulations removed",
			zap.String("op", "store.MemoryStore.sweep"),
			zap.Int("removed", removed),
		)
	}
	return removed
}

// Save stores or replaces a record.
func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// Get returns a live record or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok || record.Expired(s.now()) {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Len returns the number of records held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopSweep) })
	return nil
}
