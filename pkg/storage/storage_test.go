package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/storage/cache"
	"github.com/platinummonkey/launchpad/pkg/storage/memory"
)

func TestOpen_Memory(t *testing.T) {
	backend, err := Open(context.Background(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	defer backend.Close()

	assert.IsType(t, &memory.Store{}, backend.Billing)
	assert.Same(t, backend.Billing, backend.Projects)
	assert.Nil(t, backend.DB)
	assert.Nil(t, backend.Redis)
}

func TestOpen_MemoryWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	backend, err := Open(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	assert.IsType(t, &cache.ProfileCache{}, backend.Billing)
	assert.IsType(t, &memory.Store{}, backend.Projects)
	require.NotNil(t, backend.Redis)
	assert.NoError(t, backend.Close())
}

func TestOpen_Errors(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := Open(context.Background(), Config{Type: "filesystem"}, nil, nil)
		assert.ErrorContains(t, err, `unknown storage type "filesystem"`)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := DefaultConfig()
		cfg.RedisURL = "redis://" + addr
		_, err := Open(context.Background(), cfg, nil, nil)
		assert.ErrorContains(t, err, "failed to connect to redis")
	})
}
