package httpadapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/observability/metrics"
)

// SessionRegistry owns the live conversation sessions. Each session carries
// its own lock so concurrent messages to the same session serialize, which
// the state machine requires, while different sessions advance in parallel.
type SessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry

	ttl     time.Duration
	service string
	metrics *metrics.HTTPServerMetrics
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
}

func NewSessionRegistry(ttl time.Duration, service string, m *metrics.HTTPServerMetrics) *SessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRegistry{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		service: service,
		metrics: m,
	}
}

func (r *SessionRegistry) Create() *domain.Session {
	session := domain.NewSession(uuid.NewString())

	r.mu.Lock()
	r.entries[session.ID] = &sessionEntry{session: session}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SessionCreated(r.service)
	}
	return session
}

// WithSession runs fn while holding the session's lock. The registry lock is
// released before fn runs, so a slow turn never blocks unrelated sessions.
func (r *SessionRegistry) WithSession(id string, fn func(*domain.Session) error) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "lookup session", fmt.Errorf("session %s", id))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

func (r *SessionRegistry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok && r.metrics != nil {
		r.metrics.SessionDropped()
	}
	return ok
}

// EvictIdle drops sessions untouched since the cutoff and reports how many
// were removed.
func (r *SessionRegistry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	evicted := 0
	for id, entry := range r.entries {
		entry.mu.Lock()
		idle := entry.session.UpdatedAt.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			delete(r.entries, id)
			evicted++
		}
	}
	r.mu.Unlock()

	if evicted > 0 && r.metrics != nil {
		r.metrics.SessionsEvicted(r.service, evicted)
	}
	return evicted
}

// StartEviction sweeps idle sessions until ctx is canceled.
func (r *SessionRegistry) StartEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.EvictIdle(now.Add(-r.ttl))
			}
		}
	}()
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
