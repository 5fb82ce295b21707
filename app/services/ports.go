package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
)

// CartStore persists carts. Save must reject a write whose cart.Version no
// longer matches the stored one with repositories.ErrStaleCart.
type CartStore interface {
	FindByOwner(ctx context.Context, owner string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByOwner(ctx context.Context, owner string) (bool, error)
}

// ProductCatalog is the read-only product lookup. FindByID must return
// current stock; FindByIDs may be served from a cache.
type ProductCatalog interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}
