package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
	"taxrelief/pkg/platform/sentinel"
)

// MemoryStore is the in-process event log used in tests and single-node
// development runs. Same contract as the Postgres store, including the
// sequence conflict semantics.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[id.RecordID][]models.Event
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		logs: make(map[id.RecordID][]models.Event),
	}
}

func (s *MemoryStore) Append(_ context.Context, ev models.Event) error {
	if ev.RecordID.IsNil() {
		return fmt.Errorf("append: record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[ev.RecordID]
	var last int64
	if len(log) > 0 {
		last = log[len(log)-1].Sequence
	}
	if ev.Sequence != last+1 {
		return fmt.Errorf("append record %s sequence %d (last %d): %w",
			ev.RecordID, ev.Sequence, last, sentinel.ErrConflict)
	}
	s.logs[ev.RecordID] = append(log, ev)
	return nil
}

func (s *MemoryStore) History(_ context.Context, recordID id.RecordID) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[recordID]
	out := make([]models.Event, len(log))
	copy(out, log)
	return out, nil
}

func (s *MemoryStore) ListRecordIDs(_ context.Context) ([]id.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]id.RecordID, 0, len(s.logs))
	for recordID := range s.logs {
		ids = append(ids, recordID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
