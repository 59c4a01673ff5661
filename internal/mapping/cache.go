package mapping

import "sync"

// TablePair keys a cached schema lookup.
type TablePair struct {
	SourceTable string
	TargetTable string
}

// PairColumns holds both column lists fetched for a table pair.
type PairColumns struct {
	SourceColumns []Column
	TargetColumns []Column
}

// SchemaCache memoizes column lists per table pair for one editing session,
// so switching wizard tabs does not refetch schemas. There is no eviction;
// the caller decides when an entry is stale and calls Invalidate (for
// example after a match-method change that must re-resolve from fresh
// columns).
type SchemaCache struct {
	mu      sync.RWMutex
	entries map[TablePair]PairColumns
}

// NewSchemaCache constructs an empty SchemaCache.
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{entries: make(map[TablePair]PairColumns)}
}

// Get returns the cached columns for the pair, if present.
func (c *SchemaCache) Get(sourceTable, targetTable string) (PairColumns, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cols, ok := c.entries[TablePair{SourceTable: sourceTable, TargetTable: targetTable}]
	return cols, ok
}

// Put stores the columns for the pair, replacing any previous entry.
func (c *SchemaCache) Put(sourceTable, targetTable string, cols PairColumns) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[TablePair{SourceTable: sourceTable, TargetTable: targetTable}] = cols
}

// Invalidate drops the entry for the pair. Missing entries are a no-op.
func (c *SchemaCache) Invalidate(sourceTable, targetTable string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, TablePair{SourceTable: sourceTable, TargetTable: targetTable})
}

// Len reports the number of cached pairs.
func (c *SchemaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
