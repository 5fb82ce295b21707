package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

type fixture struct {
	carts    *repositories.MemoryCartRepository
	products *repositories.MemoryProductRepository
	svc      *services.CartService
	bus      *event.Bus
	fired    []services.CartEvent
	product  primitive.ObjectID
}

func newFixture(t *testing.T, opts ...services.Option) *fixture {
	t.Helper()
	f := &fixture{
		carts:    repositories.NewMemoryCartRepository(),
		products: repositories.NewMemoryProductRepository(),
		bus:      event.NewBus(),
	}
	f.product = f.products.Put(models.Product{Name: "P", Price: 100, Stock: 5, Category: models.CategoryOther})[0]

	for _, name := range []string{services.EventItemAdded, services.EventItemUpdated, services.EventItemRemoved, services.EventCartCleared} {
		f.bus.Listen(name, func(_ context.Context, e event.Event) {
			f.fired = append(f.fired, e.(services.CartEvent))
		})
	}
	f.svc = services.NewCartService(f.carts, f.products, append([]services.Option{services.WithEvents(f.bus)}, opts...)...)
	return f
}

func (f *fixture) add(t *testing.T, owner string, qty int) *models.ResolvedCart {
	t.Helper()
	rc, err := f.svc.AddItem(context.Background(), services.AddItemInput{
		Owner: owner, ProductRef: f.product.Hex(), Quantity: qty, UnitPrice: 100,
	})
	require.NoError(t, err)
	return rc
}

func lines(rc *models.ResolvedCart) [][2]float64 {
	out := make([][2]float64, len(rc.Items))
	for i, li := range rc.Items {
		out[i] = [2]float64{float64(li.Quantity), li.UnitPrice}
	}
	return out
}

func TestCartLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rc := f.add(t, "u", 3)
	assert.Equal(t, [][2]float64{{3, 100}}, lines(rc))
	assert.Equal(t, 300.0, rc.Total)
	require.NotNil(t, rc.Items[0].Product)
	assert.Equal(t, "P", rc.Items[0].Product.Name)

	rc = f.add(t, "u", 1)
	assert.Equal(t, [][2]float64{{4, 100}}, lines(rc))
	assert.Equal(t, 400.0, rc.Total)

	rc, err := f.svc.UpdateQuantity(ctx, "u", f.product.Hex(), 2)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{2, 100}}, lines(rc))
	assert.Equal(t, 200.0, rc.Total)

	rc, err = f.svc.RemoveItem(ctx, "u", f.product.Hex())
	require.NoError(t, err)
	assert.Empty(t, rc.Items)
	assert.Equal(t, 0.0, rc.Total)

	stored, err := f.carts.FindByOwner(ctx, "u")
	require.NoError(t, err, "removing the last item keeps the cart")
	assert.Empty(t, stored.Items)

	names := make([]string, len(f.fired))
	for i, e := range f.fired {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{
		services.EventItemAdded, services.EventItemAdded, services.EventItemUpdated, services.EventItemRemoved,
	}, names)
	assert.Equal(t, 400.0, f.fired[1].Total)
}

func TestRepeatedAddMergesLine(t *testing.T) {
	f := newFixture(t)
	f.add(t, "u", 2)
	rc := f.add(t, "u", 3)

	require.Len(t, rc.Items, 1)
	assert.Equal(t, 5, rc.Items[0].Quantity)
}

func TestAddChecksIncrementalQuantityOnly(t *testing.T) {
	f := newFixture(t)
	f.add(t, "u", 4)
	rc := f.add(t, "u", 4)
	assert.Equal(t, 8, rc.Items[0].Quantity)
}

func TestAddInsufficientStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "u", 1)

	_, err := f.svc.AddItem(ctx, services.AddItemInput{Owner: "u", ProductRef: f.product.Hex(), Quantity: 6, UnitPrice: 100})
	require.ErrorIs(t, err, services.ErrInsufficientStock)

	rc, err := f.svc.GetCart(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{1, 100}}, lines(rc))
	assert.Equal(t, 100.0, rc.Total)

	_, err = f.svc.AddItem(ctx, services.AddItemInput{Owner: "fresh", ProductRef: f.product.Hex(), Quantity: 6})
	require.ErrorIs(t, err, services.ErrInsufficientStock)
	_, err = f.carts.FindByOwner(ctx, "fresh")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddItem(context.Background(), services.AddItemInput{
		Owner: "u", ProductRef: primitive.NewObjectID().Hex(), Quantity: 1,
	})
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.CartOperations.WithLabelValues("add_item", "invalid"))

	_, err := f.svc.AddItem(context.Background(), services.AddItemInput{
		Owner: "  ", ProductRef: "nope", Quantity: 0, UnitPrice: -1,
	})
	require.ErrorIs(t, err, services.ErrValidation)

	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"owner", "productRef", "quantity", "unitPrice"}, keys(verr.Fields))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CartOperations.WithLabelValues("add_item", "invalid")))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, k := range []string{"owner", "productRef", "quantity", "unitPrice"} {
		if _, ok := m[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func TestGetCartForUnknownOwnerIsEmpty(t *testing.T) {
	f := newFixture(t)
	rc, err := f.svc.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", rc.Owner)
	assert.NotNil(t, rc.Items)
	assert.Empty(t, rc.Items)
	assert.Zero(t, rc.Total)
}

func TestGetCartResolvesDeletedProductAsNil(t *testing.T) {
	f := newFixture(t)
	f.add(t, "u", 2)
	f.products.Delete(f.product)

	rc, err := f.svc.GetCart(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, rc.Items, 1)
	assert.Nil(t, rc.Items[0].Product)
	assert.Equal(t, 200.0, rc.Total)
}

func TestGetCartThroughDefaultProductCacheShowsDeletion(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := cache.Connect(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	carts := repositories.NewMemoryCartRepository()
	products := repositories.NewMemoryProductRepository()
	ref := products.Put(models.Product{Name: "P", Price: 10, Stock: 5})[0]
	catalog := repositories.NewCachedCatalog(products, cache.New(rdb, "storefront:"), config.ProductCacheTTL())
	svc := services.NewCartService(carts, catalog)

	ctx := context.Background()
	_, err = svc.AddItem(ctx, services.AddItemInput{Owner: "u", ProductRef: ref.Hex(), Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	products.Put(models.Product{ID: ref, Name: "P", Price: 10, Stock: 0})
	rc, err := svc.GetCart(ctx, "u")
	require.NoError(t, err)
	require.NotNil(t, rc.Items[0].Product)
	assert.Equal(t, 0, rc.Items[0].Product.Stock)

	products.Delete(ref)
	rc, err = svc.GetCart(ctx, "u")
	require.NoError(t, err)
	require.Len(t, rc.Items, 1)
	assert.Nil(t, rc.Items[0].Product)
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()

	a := newFixture(t)
	a.add(t, "u", 2)
	viaUpdate, err := a.svc.UpdateQuantity(ctx, "u", a.product.Hex(), 0)
	require.NoError(t, err)

	b := newFixture(t)
	b.add(t, "u", 2)
	viaRemove, err := b.svc.RemoveItem(ctx, "u", b.product.Hex())
	require.NoError(t, err)

	assert.Equal(t, lines(viaRemove), lines(viaUpdate))
	assert.Empty(t, viaUpdate.Items)
	assert.Equal(t, viaRemove.Total, viaUpdate.Total)
	assert.Equal(t, services.EventItemRemoved, a.fired[len(a.fired)-1].Name())
}

func TestUpdateQuantityNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateQuantity(ctx, "u", f.product.Hex(), 1)
	assert.ErrorIs(t, err, services.ErrCartNotFound)

	f.add(t, "u", 1)
	_, err = f.svc.UpdateQuantity(ctx, "u", primitive.NewObjectID().Hex(), 1)
	assert.ErrorIs(t, err, services.ErrItemNotFound)
}

func TestRemoveAbsentItemIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RemoveItem(ctx, "u", f.product.Hex())
	assert.ErrorIs(t, err, services.ErrCartNotFound)

	f.add(t, "u", 2)
	rc, err := f.svc.RemoveItem(ctx, "u", primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Equal(t, 200.0, rc.Total)
	assert.Len(t, rc.Items, 1)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ClearCart(ctx, "u"), services.ErrCartNotFound)

	f.add(t, "u", 1)
	require.NoError(t, f.svc.ClearCart(ctx, "u"))

	_, err := f.carts.FindByOwner(ctx, "u")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Equal(t, services.EventCartCleared, f.fired[len(f.fired)-1].Name())
}

// racingStore lets another writer bump the stored cart before each of the
// first `races` saves.
type racingStore struct {
	*repositories.MemoryCartRepository
	races int
	rival func()
}

func (s *racingStore) Save(ctx context.Context, cart *models.Cart) error {
	if s.races > 0 {
		s.races--
		s.rival()
	}
	return s.MemoryCartRepository.Save(ctx, cart)
}

func TestConcurrentWriteIsRetriedOnFreshState(t *testing.T) {
	ctx := context.Background()
	products := repositories.NewMemoryProductRepository()
	ids := products.Put(models.Product{Name: "A", Stock: 10}, models.Product{Name: "B", Stock: 10})

	mem := repositories.NewMemoryCartRepository()
	seed := models.NewCart("u")
	seed.Add(ids[0], 1, 10)
	seed.Recalculate()
	require.NoError(t, mem.Save(ctx, seed))

	store := &racingStore{MemoryCartRepository: mem, races: 1}
	store.rival = func() {
		c, err := mem.FindByOwner(ctx, "u")
		require.NoError(t, err)
		c.Add(ids[0], 2, 10)
		c.Recalculate()
		require.NoError(t, mem.Save(ctx, c))
	}

	conflicts := testutil.ToFloat64(metrics.CartWriteConflicts)
	svc := services.NewCartService(store, products)

	rc, err := svc.AddItem(ctx, services.AddItemInput{Owner: "u", ProductRef: ids[1].Hex(), Quantity: 1, UnitPrice: 5})
	require.NoError(t, err)

	require.Len(t, rc.Items, 2)
	assert.Equal(t, 3, rc.Items[0].Quantity, "rival write survives")
	assert.Equal(t, 35.0, rc.Total)
	assert.Equal(t, conflicts+1, testutil.ToFloat64(metrics.CartWriteConflicts))
}

func TestConflictAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	products := repositories.NewMemoryProductRepository()
	ids := products.Put(models.Product{Name: "A", Stock: 10})

	mem := repositories.NewMemoryCartRepository()
	require.NoError(t, mem.Save(ctx, models.NewCart("u")))

	store := &racingStore{MemoryCartRepository: mem, races: 10}
	store.rival = func() {
		c, err := mem.FindByOwner(ctx, "u")
		require.NoError(t, err)
		require.NoError(t, mem.Save(ctx, c))
	}

	svc := services.NewCartService(store, products, services.WithMaxAttempts(2))
	_, err := svc.AddItem(ctx, services.AddItemInput{Owner: "u", ProductRef: ids[0].Hex(), Quantity: 1})
	require.ErrorIs(t, err, services.ErrConflict)
	assert.Equal(t, 8, store.races)

	stored, err := mem.FindByOwner(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestConcurrentFirstAddsBothLand(t *testing.T) {
	ctx := context.Background()
	products := repositories.NewMemoryProductRepository()
	ids := products.Put(models.Product{Name: "A", Stock: 10}, models.Product{Name: "B", Stock: 10})

	mem := repositories.NewMemoryCartRepository()
	store := &racingStore{MemoryCartRepository: mem, races: 1}
	store.rival = func() {
		c := models.NewCart("u")
		c.Add(ids[0], 1, 3)
		c.Recalculate()
		require.NoError(t, mem.Save(ctx, c))
	}

	svc := services.NewCartService(store, products)
	rc, err := svc.AddItem(ctx, services.AddItemInput{Owner: "u", ProductRef: ids[1].Hex(), Quantity: 2, UnitPrice: 4})
	require.NoError(t, err)
	assert.Len(t, rc.Items, 2)
	assert.Equal(t, 11.0, rc.Total)
}

type failingStore struct {
	*repositories.MemoryCartRepository
}

func (failingStore) Save(context.Context, *models.Cart) error { return errors.New("connection reset") }

func TestStoreFailureIsWrapped(t *testing.T) {
	products := repositories.NewMemoryProductRepository()
	ids := products.Put(models.Product{Stock: 1})
	svc := services.NewCartService(failingStore{repositories.NewMemoryCartRepository()}, products)

	_, err := svc.AddItem(context.Background(), services.AddItemInput{Owner: "u", ProductRef: ids[0].Hex(), Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotErrorIs(t, err, services.ErrConflict)
}
