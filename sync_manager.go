package sheetqueue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SyncManager runs a delayed sync-all after connectivity comes back.
// There is no periodic sync: every run is armed by an online transition
// or by Initialize.
type SyncManager struct {
	client *Client
	delay  time.Duration
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewSyncManager creates a new sync manager
func NewSyncManager(client *Client, delay time.Duration) *SyncManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncManager{
		client: client,
		delay:  delay,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start allows the manager to be armed
func (sm *SyncManager) Start() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.stopped {
		sm.started = true
	}
}

// Arm schedules a sync-all after the delay, replacing any pending schedule
func (sm *SyncManager) Arm() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.started || sm.stopped {
		return
	}
	sm.disarmLocked()

	sm.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(sm.delay, func() {
		defer sm.wg.Done()

		sm.mu.Lock()
		if sm.timer == t {
			sm.timer = nil
		}
		sm.mu.Unlock()

		sm.performSync()
	})
	sm.timer = t
}

// Disarm cancels a scheduled sync-all that has not fired yet
func (sm *SyncManager) Disarm() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.disarmLocked()
}

func (sm *SyncManager) disarmLocked() {
	if sm.timer == nil {
		return
	}
	// A timer that already fired releases the WaitGroup itself.
	if sm.timer.Stop() {
		sm.wg.Done()
	}
	sm.timer = nil
}

// performSync executes the scheduled sync-all
func (sm *SyncManager) performSync() {
	err := sm.client.SyncAll(sm.ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClientClosed) {
		sm.client.logger.Warn("scheduled sync-all failed", "err", err)
	}
}

// Stop cancels pending and running syncs and waits for them to return
func (sm *SyncManager) Stop() {
	sm.mu.Lock()
	sm.stopped = true
	sm.disarmLocked()
	sm.mu.Unlock()

	sm.cancel()

	// Wait for a fired timer to finish
	sm.wg.Wait()
}
