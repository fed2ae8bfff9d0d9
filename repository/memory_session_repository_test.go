package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymgch/mitsumori/models"
)

func TestMemorySessionRepositoryLifecycle(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	t.Run("get before start", func(t *testing.T) {
		session, err := repo.Get(ctx, "U1")
		assert.Nil(t, session)
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run("start creates a step one session", func(t *testing.T) {
		session, err := repo.Start(ctx, "U1", "quote")
		require.NoError(t, err)
		assert.Equal(t, "U1", session.UserID)
		assert.Equal(t, "quote", session.FlowID)
		assert.Equal(t, 1, session.Step)
		assert.Empty(t, session.Answers)

		stored, err := repo.Get(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, session.Step, stored.Step)
	})

	t.Run("advance persists answers", func(t *testing.T) {
		session, err := repo.Get(ctx, "U1")
		require.NoError(t, err)

		session.SetAnswer(models.FieldUserType, "学生")
		session.Step = 2
		require.NoError(t, repo.Advance(ctx, session))

		stored, err := repo.Get(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Step)
		assert.Equal(t, "学生", stored.Answer(models.FieldUserType))
	})

	t.Run("start replaces an existing session", func(t *testing.T) {
		session, err := repo.Start(ctx, "U1", "pattern")
		require.NoError(t, err)
		assert.Equal(t, 1, session.Step)

		stored, err := repo.Get(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, "pattern", stored.FlowID)
		assert.Empty(t, stored.Answers)
	})

	t.Run("complete removes and returns", func(t *testing.T) {
		final, err := repo.Complete(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, "pattern", final.FlowID)

		_, err = repo.Get(ctx, "U1")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)

		_, err = repo.Complete(ctx, "U1")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run("invalidate is idempotent", func(t *testing.T) {
		_, err := repo.Start(ctx, "U2", "quote")
		require.NoError(t, err)

		require.NoError(t, repo.Invalidate(ctx, "U2"))
		_, err = repo.Get(ctx, "U2")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)

		require.NoError(t, repo.Invalidate(ctx, "U2"))
	})

	t.Run("advance without user id", func(t *testing.T) {
		assert.Error(t, repo.Advance(ctx, &models.QuoteSession{}))
		assert.Error(t, repo.Advance(ctx, nil))
	})
}

func TestMemorySessionRepositoryCopiesState(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	_, err := repo.Start(ctx, "U1", "quote")
	require.NoError(t, err)

	first, err := repo.Get(ctx, "U1")
	require.NoError(t, err)
	first.SetAnswer(models.FieldItem, "ドライTシャツ")
	first.Step = 99

	// Mutating the returned copy must not leak into the store.
	second, err := repo.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Step)
	assert.Empty(t, second.Answer(models.FieldItem))
}

func TestMemorySessionRepositoryPurgeExpired(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	stale, err := repo.Start(ctx, "U-stale", "quote")
	require.NoError(t, err)
	_, err = repo.Start(ctx, "U-fresh", "quote")
	require.NoError(t, err)

	// Backdate the stale session beyond the idle window.
	stale.UpdatedAt = stale.UpdatedAt.Add(-time.Hour)
	repo.mu.Lock()
	repo.sessions["U-stale"] = stale
	repo.mu.Unlock()

	purged, err := repo.PurgeExpired(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = repo.Get(ctx, "U-stale")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	_, err = repo.Get(ctx, "U-fresh")
	assert.NoError(t, err)
}

func TestMemorySessionRepositoryConcurrentAccess(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("U%d", n)
			session, err := repo.Start(ctx, userID, "quote")
			assert.NoError(t, err)
			session.SetAnswer(models.FieldUserType, "学生")
			session.Step = 2
			assert.NoError(t, repo.Advance(ctx, session))
			_, err = repo.Get(ctx, userID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	purged, err := repo.PurgeExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, purged)
}
