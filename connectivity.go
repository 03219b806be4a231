package sheetqueue

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Monitor tracks the latest online/offline signal reported by the platform
type Monitor struct {
	mu          sync.Mutex
	online      bool
	subscribers map[int]func(online bool)
	nextID      int
}

// NewMonitor creates a Monitor starting from the given state
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online:      online,
		subscribers: make(map[int]func(online bool)),
	}
}

// Online returns the latest connectivity state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a platform signal. Subscribers are called only on transitions.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers fn for transition events and returns its unsubscribe func
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

// ProbeFunc reports whether the network currently looks reachable
type ProbeFunc func(ctx context.Context) bool

// Watch feeds probe results into the monitor every interval until ctx is done
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe ProbeFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.SetOnline(probe(ctx))
	for {
		select {
		case <-ticker.C:
			m.SetOnline(probe(ctx))
		case <-ctx.Done():
			return
		}
	}
}

// HTTPProbe returns a probe that is online whenever url answers with any HTTP status
func HTTPProbe(url string, timeout time.Duration) ProbeFunc {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}
}
