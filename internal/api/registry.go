package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RishiKendai/aegis-console/internal/metrics"
	"github.com/RishiKendai/aegis-console/internal/plagiarism"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another viewer")
)

// mountedSession is one view's scan session plus its notification inbox.
type mountedSession struct {
	id       string
	session  *plagiarism.Session
	inbox    *plagiarism.Inbox
	lastSeen time.Time
}

// Registry keeps the sessions of mounted views. Each session is visible only
// to the viewer that mounted it.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*mountedSession
	idleTimeout time.Duration
	now         func() time.Time
}

func NewRegistry(idleTimeout time.Duration) *Registry {
	return &Registry{
		sessions:    make(map[string]*mountedSession),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func (r *Registry) Mount(session *plagiarism.Session, inbox *plagiarism.Inbox) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.sessions[id] = &mountedSession{
		id:       id,
		session:  session,
		inbox:    inbox,
		lastSeen: r.now(),
	}
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	log.Debug().
		Str("sessionId", id).
		Str("classId", session.ClassID()).
		Str("viewer", session.Viewer().ID).
		Msg("Session mounted")
	return id
}

func (r *Registry) Get(id, viewerID string) (*mountedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if ms.session.Viewer().ID != viewerID {
		return nil, ErrNotSessionOwner
	}
	ms.lastSeen = r.now()
	return ms, nil
}

func (r *Registry) Unmount(id, viewerID string) error {
	r.mu.Lock()
	ms, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	if ms.session.Viewer().ID != viewerID {
		r.mu.Unlock()
		return ErrNotSessionOwner
	}
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	log.Debug().Str("sessionId", id).Msg("Session unmounted")
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the timeout. Sessions with a
// scan in flight are kept.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	evicted := 0
	for id, ms := range r.sessions {
		if ms.lastSeen.Before(cutoff) && !ms.session.IsChecking() {
			delete(r.sessions, id)
			evicted++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if evicted > 0 {
		metrics.ActiveSessions.Set(float64(count))
		log.Info().Int("evicted", evicted).Int("active", count).Msg("Evicted idle sessions")
	}
	return evicted
}

// RunJanitor evicts idle sessions until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}
