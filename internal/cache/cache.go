package cache

import (
	"context"
	"sync"
	"time"

	applog "outgo/internal/log"
)

// Cleaner is implemented by caches the Manager sweeps for expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs the periodic expiry sweep over every registered cache.
type Manager struct {
	caches      []Cleaner
	logger      *applog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		logger:      applog.FromContext(context.Background()).WithComponent(applog.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Must not be called after StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) sweep() {
	cleaned := 0
	for _, cache := range m.caches {
		cleaned += cache.CleanExpired()
	}
	if cleaned > 0 {
		m.logger.Info("Expired cache entries removed", "cleaned", cleaned, "caches", len(m.caches))
	}
}

// Stop gracefully stops the cleanup routine; safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		<-m.cleanupDone
	})
}
