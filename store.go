package sheetqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store, useful for tests and ephemeral queues
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores a copy of data under key
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(data))
	copy(v, data)
	s.data[key] = v
	return nil
}

// encodeOperations serializes the queue as a JSON array
func encodeOperations(ops []PendingOperation) ([]byte, error) {
	if ops == nil {
		ops = []PendingOperation{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue: %w", err)
	}
	return data, nil
}

// decodeOperations parses a persisted queue, reporting ErrCorruptState on malformed input
func decodeOperations(data []byte) ([]PendingOperation, error) {
	var ops []PendingOperation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	for i := range ops {
		if ops[i].ID == "" {
			return nil, fmt.Errorf("%w: operation %d has no id", ErrCorruptState, i)
		}
	}
	return ops, nil
}
