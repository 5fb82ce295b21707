package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/collection"
)

// LineItem is one product row in a cart. UnitPrice is captured when the
// product is added and never refreshed from the catalogue.
type LineItem struct {
	ProductRef primitive.ObjectID `bson:"productRef" json:"productRef"`
	Quantity   int                `bson:"quantity"   json:"quantity"`
	UnitPrice  float64            `bson:"unitPrice"  json:"unitPrice"`
}

// Subtotal is UnitPrice × Quantity.
func (li LineItem) Subtotal() float64 {
	return li.subtotal().InexactFloat64()
}

func (li LineItem) subtotal() decimal.Decimal {
	return decimal.NewFromFloat(li.UnitPrice).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is an owner's basket. Total is derived from Items by Recalculate and
// must be recomputed before every write. Version is the optimistic
// concurrency token; zero means the cart has never been stored.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Owner     string             `bson:"owner"         json:"owner"`
	Items     []LineItem         `bson:"items"         json:"items"`
	Total     float64            `bson:"total"         json:"total"`
	Version   int64              `bson:"version"       json:"-"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// NewCart returns an empty, unsaved cart for owner.
func NewCart(owner string) *Cart {
	return &Cart{Owner: owner, Items: []LineItem{}}
}

// IsNew reports whether the cart has not been persisted yet.
func (c *Cart) IsNew() bool { return c.Version == 0 }

func (c *Cart) indexOf(ref primitive.ObjectID) int {
	return collection.IndexOf(c.Items, func(li LineItem) bool { return li.ProductRef == ref })
}

// Add increments the existing line for ref by quantity, or appends a new
// line priced at unitPrice. The price of an existing line is kept.
func (c *Cart) Add(ref primitive.ObjectID, quantity int, unitPrice float64) {
	if i := c.indexOf(ref); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, LineItem{ProductRef: ref, Quantity: quantity, UnitPrice: unitPrice})
}

// SetQuantity sets the line for ref to exactly quantity, removing it when
// quantity ≤ 0. It reports false when ref has no line.
func (c *Cart) SetQuantity(ref primitive.ObjectID, quantity int) bool {
	i := c.indexOf(ref)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Remove(ref)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// Remove drops every line for ref. Removing an absent product is a no-op.
func (c *Cart) Remove(ref primitive.ObjectID) {
	c.Items = collection.Reject(c.Items, func(li LineItem) bool { return li.ProductRef == ref })
}

// Recalculate recomputes and returns Total. Line subtotals are summed in
// decimal so the stored float is the nearest one to the exact sum.
func (c *Cart) Recalculate() float64 {
	sum := collection.Reduce(c.Items, decimal.Zero, func(sum decimal.Decimal, li LineItem) decimal.Decimal {
		return sum.Add(li.subtotal())
	})
	c.Total = sum.InexactFloat64()
	return c.Total
}

// ProductRefs returns the distinct product references in line order.
func (c *Cart) ProductRefs() []primitive.ObjectID {
	return collection.Unique(collection.Map(c.Items, func(li LineItem) primitive.ObjectID { return li.ProductRef }))
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append(make([]LineItem, 0, len(c.Items)), c.Items...)
	return &cp
}
