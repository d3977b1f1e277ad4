package discovery

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/models"
)

// Session enforces last-query-wins for one user: a batch that settles after
// a newer search has started is discarded. In-flight batches are never
// cancelled.
type Session struct {
	seq      atomic.Uint64
	lastSeen atomic.Int64
}

func (s *Session) begin() uint64 {
	s.touch()
	return s.seq.Add(1)
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// Current returns the sequence number of the latest search started
func (s *Session) Current() uint64 {
	return s.seq.Load()
}

// Resolve runs a description search tagged with the next sequence number.
// If another search started in this session before it settled, the result
// is dropped and ErrStale is returned. An empty query is rejected without
// taking a sequence number, so it never supersedes a search in flight.
func (s *Session) Resolve(ctx context.Context, svc *Service, query string) (*models.Resolution, error) {
	if strings.TrimSpace(query) == "" {
		return svc.ResolveByDescription(ctx, query)
	}

	seq := s.begin()
	res, err := svc.ResolveByDescription(ctx, query)
	if s.Current() != seq {
		return nil, errors.NewServiceError(serviceName, "Resolve", errors.ErrStale).
			WithContext("sequence", seq)
	}
	if res != nil {
		res.Sequence = seq
	}
	return res, err
}

const defaultSessionIdle = 30 * time.Minute

// Sessions is an in-memory registry of sessions keyed by id
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
}

// NewSessions creates a registry that forgets sessions idle for longer than
// idle; idle <= 0 uses 30 minutes.
func NewSessions(idle time.Duration) *Sessions {
	if idle <= 0 {
		idle = defaultSessionIdle
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		idle:     idle,
	}
}

// Get returns the session for id, creating it when unknown. An empty id
// gets a fresh random one.
func (r *Sessions) Get(id string) (string, *Session) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		session = &Session{}
		r.sessions[id] = session
	}
	session.touch()
	return id, session
}

// Prune drops idle sessions and returns how many were removed
func (r *Sessions) Prune() int {
	cutoff := time.Now().Add(-r.idle).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.lastSeen.Load() < cutoff {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
