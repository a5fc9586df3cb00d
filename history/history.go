// Package history keeps the results of completed batches for the lifetime
// of the process.
//
// A Store is created once at startup, handed to the batch orchestrator
// (the only writer) and to the API (a reader).
package history

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/scribe/job"
)

// Record is one completed batch.
type Record struct {
	BatchID   string    `json:"batch_id" yaml:"batch_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// Source says how the batch was submitted, e.g. "upload", "cli" or "watch".
	Source  string       `json:"source,omitempty" yaml:"source,omitempty"`
	Results []job.Result `json:"results" yaml:"results"`
}

// Succeeded counts the successful results in the record.
func (r Record) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// Store is an append-only log of batch records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// List returns records oldest first.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, batchID string) (Record, bool, error)
}

// MemoryStore is a Store held in memory. With a positive capacity the
// oldest records are evicted once the capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

// NewMemoryStore creates a MemoryStore. capacity <= 0 means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	rec.Results = append([]job.Result(nil), rec.Results...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if s.capacity > 0 && len(s.records) > s.capacity {
		drop := len(s.records) - s.capacity
		s.records = append(s.records[:0:0], s.records[drop:]...)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, batchID string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].BatchID == batchID {
			return s.records[i], true, nil
		}
	}
	return Record{}, false, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
