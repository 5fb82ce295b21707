package repositories

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

const productCacheName = "product"

// ProductSource is the uncached catalogue behind a CachedCatalog.
type ProductSource interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

// CachedCatalog serves batched product lookups for display through Redis.
// FindByID always reads the source so stock checks see current numbers.
type CachedCatalog struct {
	source ProductSource
	store  *cache.Store
	ttl    time.Duration
	fill   *workerpool.Pool
}

// NewCachedCatalog wraps source. A disabled store or a ttl of zero turns
// the cache off.
func NewCachedCatalog(source ProductSource, store *cache.Store, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{source: source, store: store, ttl: ttl}
}

// FillWith moves cache write-back onto pool. Fills that do not fit in the
// pool's queue are skipped.
func (c *CachedCatalog) FillWith(pool *workerpool.Pool) *CachedCatalog {
	c.fill = pool
	return c
}

func (c *CachedCatalog) enabled() bool { return c.store.Enabled() && c.ttl > 0 }

func (c *CachedCatalog) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return c.source.FindByID(ctx, id)
}

// FindByIDs answers from Redis what it can and loads the rest from the
// source, writing them back with the configured ttl. Redis failures fall
// back to the source.
func (c *CachedCatalog) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	if !c.enabled() || len(ids) == 0 {
		return c.source.FindByIDs(ctx, ids)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productCacheKey(id)
	}

	out := make(map[primitive.ObjectID]models.Product, len(ids))
	err := c.store.MGet(ctx, keys, func(i int, raw []byte) {
		var p models.Product
		if json.Unmarshal(raw, &p) == nil {
			out[ids[i]] = p
		}
	})
	if err != nil {
		logger.WithCtx(ctx).Warn("product cache read failed", "error", err)
	}

	missing := make([]primitive.ObjectID, 0, len(ids)-len(out))
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	metrics.CacheHits.WithLabelValues(productCacheName).Add(float64(len(out)))
	metrics.CacheMisses.WithLabelValues(productCacheName).Add(float64(len(missing)))

	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.source.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range loaded {
		out[id] = p
	}
	c.writeBack(ctx, loaded)
	return out, nil
}

func (c *CachedCatalog) writeBack(ctx context.Context, products map[primitive.ObjectID]models.Product) {
	if len(products) == 0 {
		return
	}
	log := logger.WithCtx(ctx)
	write := func(ctx context.Context) {
		for id, p := range products {
			if err := c.store.Set(ctx, productCacheKey(id), p, c.ttl); err != nil {
				log.Warn("product cache write failed", "product", id.Hex(), "error", err)
			}
		}
	}

	if c.fill == nil {
		write(ctx)
		return
	}
	detached := context.WithoutCancel(ctx)
	if err := c.fill.Submit(func() { write(detached) }); err != nil {
		log.Debug("product cache fill skipped", "error", err)
	}
}

func productCacheKey(id primitive.ObjectID) string {
	return productCacheName + ":" + id.Hex()
}
