package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRepository(client), mr
}

func TestSetGet_RoundTrip(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	s := &Session{UserID: 42, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Set(ctx, "tok-1", s, time.Hour))

	got, err := repo.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
}

func TestGet_Missing(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "tok-unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSet_TTLApplied(t *testing.T) {
	repo, mr := setupTestRepo(t)

	require.NoError(t, repo.Set(context.Background(), "tok-1", &Session{UserID: 1}, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(sessionKey("tok-1")))

	mr.FastForward(2 * time.Minute)
	_, err := repo.Get(context.Background(), "tok-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpire_RemovesSession(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "tok-1", &Session{UserID: 1}, time.Hour))
	require.NoError(t, repo.Expire(ctx, "tok-1"))

	_, err := repo.Get(ctx, "tok-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
