package sheetqueue

import (
	"sync"
)

// Cache holds the ordered in-memory queue of pending operations
type Cache struct {
	mu  sync.RWMutex
	ops []*PendingOperation // insertion order
}

// NewCache creates a new Cache instance
func NewCache() *Cache {
	return &Cache{
		ops: []*PendingOperation{},
	}
}

// Get retrieves an operation by id
func (c *Cache) Get(id string) (PendingOperation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		return PendingOperation{}, false
	}

	// Return a copy to prevent external modification
	return c.ops[i].clone(), true
}

// Append adds an operation at the end of the queue (fails if id already exists)
func (c *Cache) Append(op PendingOperation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(op.ID) >= 0 {
		return ErrDuplicateID
	}

	stored := op.clone()
	c.ops = append(c.ops, &stored)
	return nil
}

// Update applies fn to the stored operation; reports false if id is absent
func (c *Cache) Update(id string, fn func(op *PendingOperation)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}

	fn(c.ops[i])
	return true
}

// Remove deletes an operation; reports false if id is absent
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}

	c.ops = append(c.ops[:i], c.ops[i+1:]...)
	return true
}

// All returns copies of every operation in insertion order
func (c *Cache) All() []PendingOperation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]PendingOperation, 0, len(c.ops))
	for _, op := range c.ops {
		out = append(out, op.clone())
	}
	return out
}

// EligibleIDs returns ids of pending and errored operations in insertion order
func (c *Cache) EligibleIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.ops))
	for _, op := range c.ops {
		if op.Eligible() {
			ids = append(ids, op.ID)
		}
	}
	return ids
}

// Load replaces all data with the provided operations
func (c *Cache) Load(ops []PendingOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ops = make([]*PendingOperation, 0, len(ops))
	for i := range ops {
		stored := ops[i].clone()
		c.ops = append(c.ops, &stored)
	}
}

// Size returns the number of operations
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.ops)
}

// Clear removes all operations
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ops = []*PendingOperation{}
}

// indexOf finds the position of id; callers hold the lock
func (c *Cache) indexOf(id string) int {
	for i, op := range c.ops {
		if op.ID == id {
			return i
		}
	}
	return -1
}
