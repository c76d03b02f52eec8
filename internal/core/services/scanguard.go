package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

// scanGuard enforces at most one bulk scan per process.
// Acquire and release form a begin/end pair; callers release with defer.
type scanGuard struct {
	state atomic.Int32

	mu          sync.RWMutex
	lastStarted time.Time
	lastEnded   time.Time
}

// tryAcquire moves Idle to Running. Returns false if a scan is already running.
func (g *scanGuard) tryAcquire() bool {
	if !g.state.CompareAndSwap(int32(domain.ScanIdle), int32(domain.ScanRunning)) {
		return false
	}
	g.mu.Lock()
	g.lastStarted = time.Now()
	g.mu.Unlock()
	return true
}

// release moves Running back to Idle.
func (g *scanGuard) release() {
	g.mu.Lock()
	g.lastEnded = time.Now()
	g.mu.Unlock()
	g.state.Store(int32(domain.ScanIdle))
}

// State returns the current scan state.
func (g *scanGuard) State() domain.ScanState {
	return domain.ScanState(g.state.Load())
}

// times returns when the last scan started and ended.
func (g *scanGuard) times() (started, ended time.Time) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastStarted, g.lastEnded
}
