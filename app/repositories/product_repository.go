package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ProductRepository reads the products collection.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *database.Mongo) *ProductRepository {
	return &ProductRepository{col: db.Collection(database.ProductsCollection)}
}

// FindByID returns the product or ErrNotFound.
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	defer metrics.ObserveDBQuery(database.ProductsCollection, "find_one", time.Now())

	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	checkCategory(ctx, p)
	return &p, nil
}

// FindByIDs loads every existing product among ids with one $in query.
// Missing IDs are simply absent from the result.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]models.Product{}, nil
	}

	defer metrics.ObserveDBQuery(database.ProductsCollection, "find", time.Now())

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	for _, p := range products {
		checkCategory(ctx, p)
	}
	return collection.KeyBy(products, func(p models.Product) primitive.ObjectID { return p.ID }), nil
}

// checkCategory flags catalogue records written outside the known
// categories. They are still served.
func checkCategory(ctx context.Context, p models.Product) {
	if !p.Category.Valid() {
		logger.WithCtx(ctx).Warn("product has unknown category", "product", p.ID.Hex(), "category", p.Category)
	}
}

// EnsureIndexes creates the category and price indexes used by catalogue
// queries.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) ([]string, error) {
	return r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("category")},
		{Keys: bson.D{{Key: "price", Value: 1}}, Options: options.Index().SetName("price")},
	})
}
