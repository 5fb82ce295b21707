package services

import "go.mongodb.org/mongo-driver/bson/primitive"

// Cart event names.
const (
	EventItemAdded   = "cart.item_added"
	EventItemUpdated = "cart.item_updated"
	EventItemRemoved = "cart.item_removed"
	EventCartCleared = "cart.cleared"
)

// CartEvent is fired after a cart mutation has been persisted. ProductRef
// and Quantity are zero for cart.cleared; Quantity is the requested
// quantity for adds and updates.
type CartEvent struct {
	Event      string
	Owner      string
	ProductRef primitive.ObjectID
	Quantity   int
	Total      float64
}

func (e CartEvent) Name() string { return e.Event }
