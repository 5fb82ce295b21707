package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/collection"
)

// ResolvedLine is a LineItem with its product record attached for display.
// Product is nil when the referenced product no longer exists.
type ResolvedLine struct {
	ProductRef primitive.ObjectID `json:"productRef"`
	Product    *Product           `json:"product"`
	Quantity   int                `json:"quantity"`
	UnitPrice  float64            `json:"unitPrice"`
	LineTotal  float64            `json:"lineTotal"`
}

// ResolvedCart is the shape every cart endpoint returns. Timestamps are
// absent for the synthetic empty cart of an owner without one.
type ResolvedCart struct {
	ID        *primitive.ObjectID `json:"_id,omitempty"`
	Owner     string              `json:"owner"`
	Items     []ResolvedLine      `json:"items"`
	Total     float64             `json:"total"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt *time.Time          `json:"updatedAt,omitempty"`
}

// EmptyResolvedCart is what an owner without a stored cart sees.
func EmptyResolvedCart(owner string) *ResolvedCart {
	return &ResolvedCart{Owner: owner, Items: []ResolvedLine{}, Total: 0}
}

// Resolve joins c with products, keyed by product ID.
func Resolve(c *Cart, products map[primitive.ObjectID]Product) *ResolvedCart {
	out := &ResolvedCart{
		Owner: c.Owner,
		Total: c.Total,
		Items: collection.Map(c.Items, func(li LineItem) ResolvedLine {
			line := ResolvedLine{
				ProductRef: li.ProductRef,
				Quantity:   li.Quantity,
				UnitPrice:  li.UnitPrice,
				LineTotal:  li.Subtotal(),
			}
			if p, ok := products[li.ProductRef]; ok {
				line.Product = &p
			}
			return line
		}),
	}
	if !c.ID.IsZero() {
		id := c.ID
		out.ID = &id
	}
	if !c.CreatedAt.IsZero() {
		created, updated := c.CreatedAt, c.UpdatedAt
		out.CreatedAt, out.UpdatedAt = &created, &updated
	}
	return out
}
