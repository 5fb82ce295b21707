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
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// CartRepository stores one cart document per owner in MongoDB.
type CartRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewCartRepository(db *database.Mongo) *CartRepository {
	return &CartRepository{
		col: db.Collection(database.CartsCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// FindByOwner returns the owner's cart or ErrNotFound.
func (r *CartRepository) FindByOwner(ctx context.Context, owner string) (*models.Cart, error) {
	defer metrics.ObserveDBQuery(database.CartsCollection, "find_one", time.Now())

	var cart models.Cart
	err := r.col.FindOne(ctx, bson.M{"owner": owner}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.LineItem{}
	}
	return &cart, nil
}

// Save persists cart. A cart that was never stored is inserted; otherwise
// the stored document is replaced only if its version still equals
// cart.Version. Either way a lost race yields ErrStaleCart and cart is left
// untouched. On success cart carries the new version and timestamps.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	next := cart.Clone()
	next.UpdatedAt = r.now()
	next.Version = cart.Version + 1

	if cart.IsNew() {
		next.ID = primitive.NewObjectID()
		next.CreatedAt = next.UpdatedAt

		start := time.Now()
		_, err := r.col.InsertOne(ctx, next)
		metrics.ObserveDBQuery(database.CartsCollection, "insert_one", start)
		if mongo.IsDuplicateKeyError(err) {
			return ErrStaleCart
		}
		if err != nil {
			return err
		}
		*cart = *next
		return nil
	}

	start := time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": cart.ID, "version": cart.Version}, next)
	metrics.ObserveDBQuery(database.CartsCollection, "replace_one", start)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleCart
	}
	*cart = *next
	return nil
}

// DeleteByOwner removes the owner's cart and reports whether one existed.
func (r *CartRepository) DeleteByOwner(ctx context.Context, owner string) (bool, error) {
	defer metrics.ObserveDBQuery(database.CartsCollection, "delete_one", time.Now())

	res, err := r.col.DeleteOne(ctx, bson.M{"owner": owner})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// EnsureIndexes creates the unique owner index that backs the
// one-cart-per-owner rule and the insert race detection in Save.
func (r *CartRepository) EnsureIndexes(ctx context.Context) ([]string, error) {
	return r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("owner_unique"),
		},
	})
}
