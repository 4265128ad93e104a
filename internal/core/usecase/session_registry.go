package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

// SessionRegistry owns the live triage controllers. Each controller
// belongs to exactly one user; nothing is shared between sessions.
type SessionRegistry struct {
	deps    TriageDeps
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	controller *TriageController
	lastSeen   time.Time
}

func NewSessionRegistry(deps TriageDeps, idleTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		deps:     deps,
		idleTTL:  idleTTL,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*registryEntry),
	}
}

func (r *SessionRegistry) Start(user domain.User) (ports.TriageWizard, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "start triage", errors.New("user is required"))
	}

	deps := r.deps
	deps.Notices = NewNoticeBoard()
	controller := NewTriageController(uuid.NewString(), user, deps)

	r.mu.Lock()
	r.sessions[controller.ID()] = &registryEntry{controller: controller, lastSeen: r.now()}
	r.mu.Unlock()

	slog.Info("triage_session_started", "session_id", controller.ID(), "user_id", user.ID)
	return controller, nil
}

// Lookup returns the caller's session. A session owned by someone else is
// reported as missing.
func (r *SessionRegistry) Lookup(user domain.User, sessionID string) (ports.TriageWizard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[strings.TrimSpace(sessionID)]
	if !ok || entry.controller.User().ID != user.ID {
		return nil, domain.WrapError(domain.ErrNotFound, "lookup triage session", errors.New("session not found"))
	}
	entry.lastSeen = r.now()
	return entry.controller, nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops sessions untouched for longer than the idle TTL. Sessions
// with a request in flight are kept.
func (r *SessionRegistry) EvictIdle() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.sessions {
		if entry.lastSeen.After(cutoff) || entry.controller.Busy() {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

// Run evicts idle sessions on every tick until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				slog.Info("triage_sessions_evicted", "count", n, "remaining", r.Len())
			}
		}
	}
}
