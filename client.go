package sheetqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is the observable state of the queue
type Snapshot struct {
	Items   []PendingOperation `json:"items"`
	Online  bool               `json:"online"`
	Syncing bool               `json:"syncing"`
}

// Client is the offline append queue consumed by form handlers
type Client struct {
	config   Config
	cache    *Cache
	store    Store
	appender Appender
	monitor  *Monitor
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	closed      bool
	inflight    map[string]bool
	subscribers map[int]func(Snapshot)
	nextSub     int
	unsubscribe func()

	saveMu  sync.Mutex
	syncMu  sync.Mutex
	syncing atomic.Bool

	syncManager *SyncManager
}

// New creates a queue client persisting to store and delivering through appender.
// A nil monitor means the client always considers itself online.
func New(store Store, appender Appender, monitor *Monitor, config *Config) *Client {
	// Use default config if not provided
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	// Set defaults for zero values
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.AutoSyncDelay == 0 {
		cfg.AutoSyncDelay = 2 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if monitor == nil {
		monitor = NewMonitor(true)
	}

	client := &Client{
		config:      cfg,
		cache:       NewCache(),
		store:       store,
		appender:    appender,
		monitor:     monitor,
		logger:      cfg.Logger,
		now:         time.Now,
		inflight:    make(map[string]bool),
		subscribers: make(map[int]func(Snapshot)),
	}

	if cfg.AutoSyncDelay > 0 {
		client.syncManager = NewSyncManager(client, cfg.AutoSyncDelay)
	}
	client.unsubscribe = monitor.Subscribe(client.onConnectivity)

	return client
}

// Initialize loads the persisted queue, recovers interrupted syncs and arms the auto-sync trigger
func (c *Client) Initialize(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	if err := c.loadFromStore(ctx); err != nil {
		return err
	}

	if !c.config.DisableStuckRecovery {
		c.recoverStuck(ctx)
	}
	c.notify()

	if c.syncManager != nil {
		c.syncManager.Start()
		if c.monitor.Online() && len(c.cache.EligibleIDs()) > 0 {
			c.syncManager.Arm()
		}
	}
	return nil
}

// loadFromStore reads the queue with retry logic; corrupt data resets the queue
func (c *Client) loadFromStore(ctx context.Context) error {
	var data []byte
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		data, err = c.store.Get(ctx, c.config.StorageKey)
		if err == nil || errors.Is(err, ErrKeyNotFound) {
			break
		}

		if i < c.config.MaxRetries {
			select {
			case <-time.After(backoff(i)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if errors.Is(err, ErrKeyNotFound) {
		c.cache.Load(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed after %d retries: %w", c.config.MaxRetries, err)
	}

	ops, err := decodeOperations(data)
	if err != nil {
		c.logger.Error("discarding corrupt queue", "key", c.config.StorageKey, "err", err)
		c.cache.Load(nil)
		c.persist(ctx)
		return nil
	}

	c.cache.Load(ops)
	c.logger.Debug("loaded queue", "count", len(ops))
	return nil
}

// recoverStuck moves operations left in syncing by an abnormal exit to error
func (c *Client) recoverStuck(ctx context.Context) {
	recovered := 0
	for _, op := range c.cache.All() {
		if op.Status != StatusSyncing {
			continue
		}
		c.cache.Update(op.ID, func(op *PendingOperation) {
			op.Status = StatusError
			op.Error = "sync interrupted before completion"
		})
		recovered++
	}

	if recovered > 0 {
		c.logger.Warn("recovered interrupted syncs", "count", recovered)
		c.persist(ctx)
	}
}

// backoff is exponential with reasonable limits
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}

// save writes the full queue through to the store
func (c *Client) save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	// The snapshot is taken under saveMu so the last write always holds the latest state.
	data, err := encodeOperations(c.cache.All())
	if err != nil {
		return err
	}
	if err := c.store.Put(context.WithoutCancel(ctx), c.config.StorageKey, data); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

// persist saves and only logs failures
func (c *Client) persist(ctx context.Context) {
	if err := c.save(ctx); err != nil {
		c.logger.Warn("queue not persisted", "err", err)
	}
}

// AddPendingAppend queues rowData for sheetName and returns the new operation id.
// An empty sheetName defaults to the key's canonical name.
func (c *Client) AddPendingAppend(ctx context.Context, key SheetKey, sheetName string, rowData []string) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSheetKey, key)
	}
	if sheetName == "" {
		sheetName = key.SheetName()
	}

	row := make([]string, len(rowData))
	copy(row, rowData)

	now := c.now().UTC()
	op := PendingOperation{
		ID:        newID(now),
		SheetKey:  key,
		SheetName: sheetName,
		RowData:   row,
		CreatedAt: now,
		Status:    StatusPending,
	}
	if err := c.cache.Append(op); err != nil {
		return "", err
	}
	c.logger.Info("queued append", "id", op.ID, "sheet", sheetName)

	err := c.save(ctx)
	c.notify()
	if err != nil {
		return op.ID, err
	}
	return op.ID, nil
}

// SyncItem delivers one operation. A missing id is a no-op; a failure is
// recorded on the operation and returned.
func (c *Client) SyncItem(ctx context.Context, id string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.beginInflight(id) {
		return fmt.Errorf("%w: %s", ErrAlreadySyncing, id)
	}
	defer c.endInflight(id)

	var req AppendRequest
	found := c.cache.Update(id, func(op *PendingOperation) {
		op.Status = StatusSyncing
		req = op.AppendRequest()
	})
	if !found {
		return nil
	}
	c.persist(ctx)
	c.notify()

	callCtx := ctx
	if c.config.AppendTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.config.AppendTimeout)
		defer cancel()
	}

	err := c.appender.Append(callCtx, req)
	if err == nil {
		c.cache.Remove(id)
		c.logger.Info("synced append", "id", id, "sheet", req.SheetName)
		c.persist(ctx)
		c.notify()
		return nil
	}

	retry := 0
	c.cache.Update(id, func(op *PendingOperation) {
		op.Status = StatusError
		op.Error = err.Error()
		op.RetryCount++
		retry = op.RetryCount
	})
	c.logger.Warn("append failed", "id", id, "sheet", req.SheetName, "retry", retry, "err", err)
	c.persist(ctx)
	c.notify()

	return fmt.Errorf("sync %s: %w", id, err)
}

// SyncAll delivers every pending or errored operation sequentially in queue order.
// It does nothing while offline or while another sync-all runs.
func (c *Client) SyncAll(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.monitor.Online() {
		c.logger.Debug("sync-all skipped while offline")
		return nil
	}

	// Try to acquire sync lock, skip if already syncing
	if !c.syncMu.TryLock() {
		return nil
	}
	defer c.syncMu.Unlock()

	c.syncing.Store(true)
	c.notify()
	defer func() {
		c.syncing.Store(false)
		c.notify()
	}()

	ids := c.cache.EligibleIDs()
	if len(ids) == 0 {
		return nil
	}
	c.logger.Info("sync-all started", "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.SyncItem(ctx, id); err != nil {
			if errors.Is(err, ErrClientClosed) {
				return err
			}
			c.logger.Warn("sync-all item failed", "id", id, "err", err)
		}
	}

	c.logger.Info("sync-all finished", "remaining", c.cache.Size())
	return nil
}

// RemoveItem discards an operation regardless of its status
func (c *Client) RemoveItem(ctx context.Context, id string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.cache.Remove(id) {
		return nil
	}
	c.logger.Info("removed append", "id", id)

	err := c.save(ctx)
	c.notify()
	return err
}

// ClearAll empties the queue
func (c *Client) ClearAll(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.cache.Clear()
	c.logger.Info("queue cleared")

	err := c.save(ctx)
	c.notify()
	return err
}

// Items returns a copy of every queued operation in order
func (c *Client) Items() []PendingOperation {
	return c.cache.All()
}

// Query returns operations matching f
func (c *Client) Query(f Filter) ([]PendingOperation, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if err := ValidateFilter(f); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return ApplyFilter(c.cache.All(), f), nil
}

// Stats returns counts of queued operations by status
func (c *Client) Stats() Stats {
	return CountStats(c.cache.All())
}

// Online returns the connectivity flag
func (c *Client) Online() bool {
	return c.monitor.Online()
}

// IsSyncing reports whether a sync-all is in progress
func (c *Client) IsSyncing() bool {
	return c.syncing.Load()
}

// Snapshot returns the current observable state
func (c *Client) Snapshot() Snapshot {
	return Snapshot{
		Items:   c.cache.All(),
		Online:  c.monitor.Online(),
		Syncing: c.syncing.Load(),
	}
}

// Subscribe registers fn to receive a Snapshot after every state change
func (c *Client) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Close stops the auto-sync trigger; later operations return ErrClientClosed
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	// Mark as closed to prevent new operations
	c.closed = true
	syncManager := c.syncManager
	c.syncManager = nil
	unsubscribe := c.unsubscribe
	c.subscribers = make(map[int]func(Snapshot))
	c.mu.Unlock()

	unsubscribe()

	// Stop the sync manager without holding the mutex
	if syncManager != nil {
		syncManager.Stop()
	}
	return nil
}

// onConnectivity reacts to monitor transitions
func (c *Client) onConnectivity(online bool) {
	c.logger.Info("connectivity changed", "online", online)
	c.notify()

	c.mu.Lock()
	sm := c.syncManager
	c.mu.Unlock()
	if sm == nil {
		return
	}

	if !online {
		sm.Disarm()
		return
	}
	if len(c.cache.EligibleIDs()) > 0 {
		sm.Arm()
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	return nil
}

func (c *Client) beginInflight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight[id] {
		return false
	}
	c.inflight[id] = true
	return true
}

func (c *Client) endInflight(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}
