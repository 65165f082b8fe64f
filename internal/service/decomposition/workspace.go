package decomposition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"breakdown/internal/domain"
	"breakdown/internal/metrics"
)

// Workspace is the in-memory registry of live decompositions. Sessions
// idle for longer than the TTL are evicted by Sweep.
type Workspace struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Collector
	logger   *slog.Logger
}

func NewWorkspace(ttl time.Duration, m *metrics.Collector, logger *slog.Logger) *Workspace {
	return &Workspace{
		sessions: map[string]*Session{},
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
		logger:   logger,
	}
}

// Put registers a session.
func (w *Workspace) Put(s *Session) {
	s.Touch(w.now())
	w.mu.Lock()
	w.sessions[s.ID] = s
	n := len(w.sessions)
	w.mu.Unlock()
	w.metrics.SetLiveDecompositions(n)
}

// Get returns a session owned by userID and marks it active.
func (w *Workspace) Get(id, userID string) (*Session, error) {
	w.mu.RLock()
	s, ok := w.sessions[id]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decomposition %s: %w", id, domain.ErrNotFound)
	}
	if s.OwnerID != userID {
		return nil, fmt.Errorf("decomposition %s: %w", id, domain.ErrForbidden)
	}
	s.Touch(w.now())
	return s, nil
}

// Remove discards a session owned by userID.
func (w *Workspace) Remove(id, userID string) error {
	if _, err := w.Get(id, userID); err != nil {
		return err
	}
	w.mu.Lock()
	delete(w.sessions, id)
	n := len(w.sessions)
	w.mu.Unlock()
	w.metrics.SetLiveDecompositions(n)
	return nil
}

func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sessions)
}

// Sweep evicts idle sessions and returns how many were removed. Sessions
// with a running expansion are kept.
func (w *Workspace) Sweep() int {
	if w.ttl <= 0 {
		return 0
	}
	cutoff := w.now().Add(-w.ttl)

	w.mu.Lock()
	removed := 0
	for id, s := range w.sessions {
		if s.idleBefore(cutoff) {
			delete(w.sessions, id)
			removed++
		}
	}
	n := len(w.sessions)
	w.mu.Unlock()

	if removed > 0 {
		w.metrics.SetLiveDecompositions(n)
		w.logger.Info("evicted idle decompositions", "count", removed, "remaining", n)
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (w *Workspace) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}
