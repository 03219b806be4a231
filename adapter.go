package sheetqueue

import "context"

// Appender delivers a single row to a remote spreadsheet destination.
// Any non-nil error is treated as a failed attempt.
type Appender interface {
	Append(ctx context.Context, req AppendRequest) error
}

// AppenderFunc adapts a function to the Appender interface
type AppenderFunc func(ctx context.Context, req AppendRequest) error

// Append calls f(ctx, req)
func (f AppenderFunc) Append(ctx context.Context, req AppendRequest) error {
	return f(ctx, req)
}

// Store is a durable single-key byte store holding the serialized queue
type Store interface {
	// Get returns the value for key or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value for key
	Put(ctx context.Context, key string, data []byte) error
}
