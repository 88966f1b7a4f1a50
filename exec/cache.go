package exec

import (
	"sort"
	"sync"

	"github.com/jv92admin/fpltools/table"
)

// TableCache holds loaded tables by ID so repeated requests skip the
// source. It is safe for concurrent use. Tables are immutable, so cached
// values are shared without copying.
type TableCache struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

// NewTableCache returns an empty cache.
func NewTableCache() *TableCache {
	return &TableCache{tables: make(map[string]*table.Table)}
}

// Get returns the cached table for id.
func (c *TableCache) Get(id string) (*table.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[id]
	return t, ok
}

// Set stores t under id, replacing any previous entry. A nil table is
// ignored.
func (c *TableCache) Set(id string, t *table.Table) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[id] = t
}

// Delete removes id.
func (c *TableCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, id)
}

// Clear removes every entry.
func (c *TableCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*table.Table)
}

// Names returns the cached IDs sorted.
func (c *TableCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tables))
	for id := range c.tables {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached tables.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
