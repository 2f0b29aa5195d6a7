package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := Config{
		Addr:       mr.Addr(),
		DB:         0,
		DefaultTTL: 1 * time.Minute,
	}

	manager, err := NewManager(config, zap.NewNop())
	require.NoError(t, err)

	return mr, manager
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Set(ctx, "answer:intro", "I am the quarterly report.", 1*time.Minute)
	require.NoError(t, err)

	value, err := manager.Get(ctx, "answer:intro")
	require.NoError(t, err)
	assert.Equal(t, "I am the quarterly report.", value)
}

func TestManager_GetMiss(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	_, err := manager.Get(context.Background(), "no-such-key")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	vector := []float64{0.1, 0.2, 0.3}
	require.NoError(t, manager.SetJSON(ctx, "embedding:abc", vector, 0))

	var got []float64
	require.NoError(t, manager.GetJSON(ctx, "embedding:abc", &got))
	assert.Equal(t, vector, got)
}

func TestManager_Delete(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "k1", "v1", 0))
	require.NoError(t, manager.Delete(ctx, "k1"))

	_, err := manager.Get(ctx, "k1")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ClosedOperations(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()

	require.NoError(t, manager.Close())

	_, err := manager.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, IsCacheMiss(err))

	// 重复关闭应当无害
	assert.NoError(t, manager.Close())
}

func TestManager_TTLExpiry(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "ephemeral", "v", 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, err := manager.Get(ctx, "ephemeral")
	assert.True(t, IsCacheMiss(err))
}
