package sheetqueue

import (
	"log/slog"
	"time"
)

// DefaultStorageKey is the durable key holding the serialized queue
const DefaultStorageKey = "sheetqueue:pending"

// Config represents configuration for the queue client
type Config struct {
	StorageKey           string        // Durable key for the queue (default: sheetqueue:pending)
	AutoSyncDelay        time.Duration // Delay before sync-all after coming online (default: 2s, negative disables)
	AppendTimeout        time.Duration // Per-call timeout for remote appends (default: none)
	MaxRetries           int           // Retries for store reads during Initialize (default: 3)
	DisableStuckRecovery bool          // Keep operations loaded as syncing untouched
	Logger               *slog.Logger  // Logger (default: slog.Default())
}

// DefaultConfig returns the recommended default configuration
func DefaultConfig() *Config {
	return &Config{
		StorageKey:    DefaultStorageKey,
		AutoSyncDelay: 2 * time.Second,
		MaxRetries:    3,
	}
}
