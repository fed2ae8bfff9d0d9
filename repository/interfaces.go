// Package repository provides storage for in-flight quote sessions and read access to the loaded rate tables
package repository

import (
	"context"
	"time"

	"github.com/ymgch/mitsumori/models"
)

// SessionRepository stores at most one in-flight quote session per LINE
// user. Mutual exclusion across events for the same user is the flow
// layer's job; implementations only have to be individually safe for
// concurrent use.
type SessionRepository interface {
	// Get returns the user's session, or models.ErrSessionNotFound.
	Get(ctx context.Context, userID string) (*models.QuoteSession, error)

	// Start creates a fresh step-1 session for the user, replacing any
	// existing one, and returns it.
	Start(ctx context.Context, userID, flowID string) (*models.QuoteSession, error)

	// Advance persists the mutated session and stamps UpdatedAt.
	Advance(ctx context.Context, session *models.QuoteSession) error

	// Complete removes the user's session and returns its final
	// snapshot, or models.ErrSessionNotFound.
	Complete(ctx context.Context, userID string) (*models.QuoteSession, error)

	// Invalidate removes the user's session. Not an error when none
	// exists.
	Invalidate(ctx context.Context, userID string) error

	// PurgeExpired drops sessions idle longer than olderThan and
	// reports how many were removed.
	PurgeExpired(ctx context.Context, olderThan time.Duration) (int, error)
}
