package projection

import (
	"context"
	"sync"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// MemoryCache keeps snapshots in-process. Values are stored by copy so
// callers can't mutate cached state behind the cache's back.
type MemoryCache struct {
	mu      sync.RWMutex
	records map[id.RecordID]models.Record
}

func NewMemory() *MemoryCache {
	return &MemoryCache{
		records: make(map[id.RecordID]models.Record),
	}
}

func (c *MemoryCache) Get(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[recordID]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (c *MemoryCache) Put(_ context.Context, rec *models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[rec.ID] = *rec
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, recordID id.RecordID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, recordID)
	return nil
}
