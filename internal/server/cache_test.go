package server

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/config"
)

func TestProductCacheConnectsOnlyWhenTTLSet(t *testing.T) {
	mr := miniredis.RunT(t)
	config.Set("REDIS_ADDR", mr.Addr())
	t.Cleanup(func() {
		config.Set("REDIS_ADDR", "")
		config.Set("PRODUCT_CACHE_TTL", "")
	})

	config.Set("PRODUCT_CACHE_TTL", "")
	assert.Nil(t, connectProductCache(context.Background()))

	config.Set("PRODUCT_CACHE_TTL", "30s")
	rdb := connectProductCache(context.Background())
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })

	mr.Close()
	config.Set("REDIS_ADDR", mr.Addr())
	assert.Nil(t, connectProductCache(context.Background()))
}
