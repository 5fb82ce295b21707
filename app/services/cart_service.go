package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const defaultMaxAttempts = 3

// CartService implements the cart lifecycle over a CartStore.
type CartService struct {
	carts       CartStore
	products    ProductCatalog
	events      *event.Bus
	maxAttempts int
}

// Option configures a CartService.
type Option func(*CartService)

// WithEvents fires cart events on bus after each successful mutation.
func WithEvents(bus *event.Bus) Option {
	return func(s *CartService) { s.events = bus }
}

// WithMaxAttempts bounds how many times a mutation is re-run after losing
// a version race. Values below 1 are treated as 1.
func WithMaxAttempts(n int) Option {
	return func(s *CartService) {
		if n < 1 {
			n = 1
		}
		s.maxAttempts = n
	}
}

func NewCartService(carts CartStore, products ProductCatalog, opts ...Option) *CartService {
	s := &CartService{carts: carts, products: products, maxAttempts: defaultMaxAttempts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItemInput is the AddItem request.
type AddItemInput struct {
	Owner      string
	ProductRef string
	Quantity   int
	UnitPrice  float64
}

// AddItem puts quantity units of a product into the owner's cart, creating
// the cart on first use. Only the requested quantity is checked against
// stock, not the resulting line quantity.
func (s *CartService) AddItem(ctx context.Context, in AddItemInput) (rc *models.ResolvedCart, err error) {
	defer func() { record("add_item", err) }()

	owner := strings.TrimSpace(in.Owner)
	errs := fieldErrors{}
	checkOwner(errs, owner)
	ref := checkProductRef(errs, in.ProductRef)
	if in.Quantity < 1 {
		errs["quantity"] = "The quantity must be at least 1."
	}
	if in.UnitPrice < 0 {
		errs["unitPrice"] = "The unitPrice must be greater than or equal to 0."
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, ref)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", ref.Hex(), err)
	}
	if !product.InStock(in.Quantity) {
		return nil, ErrInsufficientStock
	}

	cart, err := s.mutate(ctx, owner, true, func(c *models.Cart) error {
		c.Add(ref, in.Quantity, in.UnitPrice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fire(ctx, CartEvent{Event: EventItemAdded, Owner: owner, ProductRef: ref, Quantity: in.Quantity, Total: cart.Total})
	return s.resolve(ctx, cart)
}

// GetCart returns the owner's cart, or an empty one if the owner has none.
func (s *CartService) GetCart(ctx context.Context, owner string) (rc *models.ResolvedCart, err error) {
	defer func() { record("get_cart", err) }()

	owner = strings.TrimSpace(owner)
	errs := fieldErrors{}
	checkOwner(errs, owner)
	if err := errs.err(); err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByOwner(ctx, owner)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.EmptyResolvedCart(owner), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s.resolve(ctx, cart)
}

// UpdateQuantity sets the line for productRef to exactly quantity. A
// quantity of zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, productRef string, quantity int) (rc *models.ResolvedCart, err error) {
	defer func() { record("update_quantity", err) }()

	owner = strings.TrimSpace(owner)
	errs := fieldErrors{}
	checkOwner(errs, owner)
	ref := checkProductRef(errs, productRef)
	if err := errs.err(); err != nil {
		return nil, err
	}

	cart, err := s.mutate(ctx, owner, false, func(c *models.Cart) error {
		if !c.SetQuantity(ref, quantity) {
			return ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	name := EventItemUpdated
	if quantity <= 0 {
		name = EventItemRemoved
	}
	s.fire(ctx, CartEvent{Event: name, Owner: owner, ProductRef: ref, Quantity: quantity, Total: cart.Total})
	return s.resolve(ctx, cart)
}

// RemoveItem drops productRef from the cart. Removing a product that is not
// in the cart succeeds and leaves it unchanged.
func (s *CartService) RemoveItem(ctx context.Context, owner, productRef string) (rc *models.ResolvedCart, err error) {
	defer func() { record("remove_item", err) }()

	owner = strings.TrimSpace(owner)
	errs := fieldErrors{}
	checkOwner(errs, owner)
	ref := checkProductRef(errs, productRef)
	if err := errs.err(); err != nil {
		return nil, err
	}

	cart, err := s.mutate(ctx, owner, false, func(c *models.Cart) error {
		c.Remove(ref)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fire(ctx, CartEvent{Event: EventItemRemoved, Owner: owner, ProductRef: ref, Total: cart.Total})
	return s.resolve(ctx, cart)
}

// ClearCart deletes the owner's cart.
func (s *CartService) ClearCart(ctx context.Context, owner string) (err error) {
	defer func() { record("clear_cart", err) }()

	owner = strings.TrimSpace(owner)
	errs := fieldErrors{}
	checkOwner(errs, owner)
	if err := errs.err(); err != nil {
		return err
	}

	deleted, err := s.carts.DeleteByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if !deleted {
		return ErrCartNotFound
	}

	s.fire(ctx, CartEvent{Event: EventCartCleared, Owner: owner})
	return nil
}

// mutate runs load → fn → recalculate → save, starting over from a fresh
// load whenever Save reports a stale version. With create set an absent
// cart starts empty, otherwise it is ErrCartNotFound. Errors from fn abort
// without writing.
func (s *CartService) mutate(ctx context.Context, owner string, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	for attempt := 1; ; attempt++ {
		cart, err := s.carts.FindByOwner(ctx, owner)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			if !create {
				return nil, ErrCartNotFound
			}
			cart = models.NewCart(owner)
		case err != nil:
			return nil, fmt.Errorf("load cart: %w", err)
		}

		if err := fn(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()

		err = s.carts.Save(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repositories.ErrStaleCart) {
			return nil, fmt.Errorf("save cart: %w", err)
		}

		metrics.CartWriteConflicts.Inc()
		logger.WithCtx(ctx).Debug("cart write lost version race", "owner", owner, "attempt", attempt)
		if attempt >= s.maxAttempts {
			return nil, ErrConflict
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// resolve attaches product records with a single batched lookup.
func (s *CartService) resolve(ctx context.Context, cart *models.Cart) (*models.ResolvedCart, error) {
	products, err := s.products.FindByIDs(ctx, cart.ProductRefs())
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	return models.Resolve(cart, products), nil
}

func (s *CartService) fire(ctx context.Context, e CartEvent) {
	s.events.Fire(ctx, e)
}

func checkOwner(errs fieldErrors, owner string) {
	if owner == "" {
		errs["owner"] = "The owner field is required."
	}
}

func checkProductRef(errs fieldErrors, hex string) primitive.ObjectID {
	ref, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		errs["productRef"] = "The productRef must be a valid object id."
	}
	return ref
}

func record(operation string, err error) {
	metrics.RecordCartOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrCartNotFound), errors.Is(err, ErrItemNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
