package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/utils"
)

// redisSessionKeyPrefix namespaces session keys in a shared instance.
const redisSessionKeyPrefix = "quote_session:"

// RedisSessionRepository stores sessions as JSON values with a TTL that
// is refreshed on every write, so idle sessions expire inside Redis and
// PurgeExpired has nothing to do.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ SessionRepository = (*RedisSessionRepository)(nil)

// NewRedisSessionRepository creates a session store over an existing
// client. ttl zero means sessions never expire on their own.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSessionRepository) key(userID string) string {
	return redisSessionKeyPrefix + userID
}

func (r *RedisSessionRepository) save(ctx context.Context, session *models.QuoteSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(session.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Get returns the user's session.
func (r *RedisSessionRepository) Get(ctx context.Context, userID string) (*models.QuoteSession, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session models.QuoteSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Start replaces any existing session with a fresh step-1 one.
func (r *RedisSessionRepository) Start(ctx context.Context, userID, flowID string) (*models.QuoteSession, error) {
	session := models.NewQuoteSession(userID, flowID, utils.UTCNow())
	if err := r.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Advance persists the mutated session, refreshing its TTL.
func (r *RedisSessionRepository) Advance(ctx context.Context, session *models.QuoteSession) error {
	if session == nil || session.UserID == "" {
		return fmt.Errorf("cannot advance session without a user id")
	}
	session.UpdatedAt = utils.UTCNow()
	return r.save(ctx, session)
}

// Complete atomically removes the user's session and returns it.
func (r *RedisSessionRepository) Complete(ctx context.Context, userID string) (*models.QuoteSession, error) {
	data, err := r.client.GetDel(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to take session from redis: %w", err)
	}

	var session models.QuoteSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Invalidate removes the user's session if present.
func (r *RedisSessionRepository) Invalidate(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op: the per-key TTL already evicts idle sessions.
func (r *RedisSessionRepository) PurgeExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}
