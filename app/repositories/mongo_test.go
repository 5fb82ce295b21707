package repositories_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/database"
)

// mongoDB connects to MONGO_TEST_URI and returns a throwaway database.
func mongoDB(t *testing.T) *database.Mongo {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, uri, "storefront_test_"+uuid.NewString()[:8], 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.DB.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestCartRepositoryAgainstMongo(t *testing.T) {
	db := mongoDB(t)
	ctx := context.Background()
	repo := repositories.NewCartRepository(db)

	_, err := repo.EnsureIndexes(ctx)
	require.NoError(t, err)

	_, err = repo.FindByOwner(ctx, "u1")
	require.ErrorIs(t, err, repositories.ErrNotFound)

	p := primitive.NewObjectID()
	cart := models.NewCart("u1")
	cart.Add(p, 2, 7.5)
	cart.Recalculate()
	require.NoError(t, repo.Save(ctx, cart))
	assert.EqualValues(t, 1, cart.Version)

	assert.ErrorIs(t, repo.Save(ctx, models.NewCart("u1")), repositories.ErrStaleCart)

	a, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	b, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15.0, a.Total)
	assert.Equal(t, p, a.Items[0].ProductRef)

	a.Remove(p)
	a.Recalculate()
	require.NoError(t, repo.Save(ctx, a))
	assert.ErrorIs(t, repo.Save(ctx, b), repositories.ErrStaleCart)

	empty, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
	assert.EqualValues(t, 2, empty.Version)

	deleted, err := repo.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProductRepositoryAgainstMongo(t *testing.T) {
	db := mongoDB(t)
	ctx := context.Background()
	repo := repositories.NewProductRepository(db)

	_, err := repo.EnsureIndexes(ctx)
	require.NoError(t, err)

	a := models.Product{ID: primitive.NewObjectID(), Name: "Desk", Price: 120, Category: models.CategoryHomeGarden, Stock: 4}
	b := models.Product{ID: primitive.NewObjectID(), Name: "Novel", Price: 9.5, Category: "Comics", Stock: 0}
	_, err = db.Collection(database.ProductsCollection).InsertMany(ctx, []interface{}{a, b})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk", got.Name)
	assert.Equal(t, models.CategoryHomeGarden, got.Category)

	_, err = repo.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	found, err := repo.FindByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, 9.5, found[b.ID].Price)
	assert.Equal(t, models.Category("Comics"), found[b.ID].Category)
}
