// Package scheduler
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/ymgch/mitsumori/repository"
	"github.com/ymgch/mitsumori/utils"
)

// SessionJanitor periodically drops quote sessions that sat idle past
// their TTL so abandoned conversations do not accumulate in the store.
type SessionJanitor struct {
	sessions repository.SessionRepository
	idleTTL  time.Duration
	interval time.Duration
	logger   *log.Logger
}

func NewSessionJanitor(sessions repository.SessionRepository, idleTTL, interval time.Duration, logger *log.Logger) *SessionJanitor {
	if idleTTL <= 0 {
		idleTTL = utils.SessionIdleTTL
	}
	if interval <= 0 {
		interval = utils.SessionCleanupInterval
	}
	if logger == nil {
		logger = log.Default()
	}

	return &SessionJanitor{
		sessions: sessions,
		idleTTL:  idleTTL,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the janitor loop in a background goroutine and returns a stop function
func (j *SessionJanitor) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (j *SessionJanitor) runOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	purged, err := j.sessions.PurgeExpired(sweepCtx, j.idleTTL)
	if err != nil {
		j.logger.Printf("janitor: purge expired sessions failed: %v", err)
		return
	}
	if purged > 0 {
		j.logger.Printf("janitor: purged %d idle quote sessions", purged)
	}
}
