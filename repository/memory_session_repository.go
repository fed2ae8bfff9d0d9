package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/utils"
)

// MemorySessionRepository keeps sessions in a map guarded by a RWMutex.
// Sessions are deep-copied on the way in and out so callers never alias
// stored state. The default backend; a janitor drives PurgeExpired.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.QuoteSession
}

var _ SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository creates an empty in-memory session store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*models.QuoteSession),
	}
}

// Get returns a copy of the user's session.
func (r *MemorySessionRepository) Get(ctx context.Context, userID string) (*models.QuoteSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[userID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Start replaces any existing session with a fresh step-1 one.
func (r *MemorySessionRepository) Start(ctx context.Context, userID, flowID string) (*models.QuoteSession, error) {
	session := models.NewQuoteSession(userID, flowID, utils.UTCNow())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = session.Clone()
	return session, nil
}

// Advance stores a copy of the mutated session and stamps UpdatedAt.
func (r *MemorySessionRepository) Advance(ctx context.Context, session *models.QuoteSession) error {
	if session == nil || session.UserID == "" {
		return fmt.Errorf("cannot advance session without a user id")
	}
	session.UpdatedAt = utils.UTCNow()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.UserID] = session.Clone()
	return nil
}

// Complete removes the user's session and returns the final snapshot.
func (r *MemorySessionRepository) Complete(ctx context.Context, userID string) (*models.QuoteSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[userID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	delete(r.sessions, userID)
	return session, nil
}

// Invalidate removes the user's session if present.
func (r *MemorySessionRepository) Invalidate(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

// PurgeExpired drops sessions whose last update is older than olderThan.
func (r *MemorySessionRepository) PurgeExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	now := utils.UTCNow()

	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for userID, session := range r.sessions {
		if session.IsIdle(olderThan, now) {
			delete(r.sessions, userID)
			purged++
		}
	}
	return purged, nil
}
