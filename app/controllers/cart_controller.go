package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type CartController struct {
	service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{service: service}
}

type addItemRequest struct {
	Owner      string   `json:"owner"      validate:"required,max=128"`
	ProductRef string   `json:"productRef" validate:"required,objectid"`
	Quantity   *int     `json:"quantity"   validate:"required,gte=1"`
	UnitPrice  *float64 `json:"unitPrice"  validate:"required,gte=0"`
}

type updateQuantityRequest struct {
	Owner      string `json:"owner"      validate:"required,max=128"`
	ProductRef string `json:"productRef" validate:"required,objectid"`
	Quantity   *int   `json:"quantity"   validate:"required"`
}

// Add handles POST /api/cart/add.
func (cc *CartController) Add(c *ctx.Context) {
	var req addItemRequest
	if !c.BindJSON(&req) {
		return
	}

	cart, err := cc.service.AddItem(c.Context(), services.AddItemInput{
		Owner:      req.Owner,
		ProductRef: req.ProductRef,
		Quantity:   *req.Quantity,
		UnitPrice:  *req.UnitPrice,
	})
	if err != nil {
		fail(c, "Error adding to cart", err)
		return
	}
	c.SuccessMessage("Item added to cart", cart)
}

// Show handles GET /api/cart/{owner}.
func (cc *CartController) Show(c *ctx.Context) {
	cart, err := cc.service.GetCart(c.Context(), c.Param("owner"))
	if err != nil {
		fail(c, "Error fetching cart", err)
		return
	}
	c.Success(cart)
}

// Update handles PUT /api/cart/update.
func (cc *CartController) Update(c *ctx.Context) {
	var req updateQuantityRequest
	if !c.BindJSON(&req) {
		return
	}

	cart, err := cc.service.UpdateQuantity(c.Context(), req.Owner, req.ProductRef, *req.Quantity)
	if err != nil {
		fail(c, "Error updating cart", err)
		return
	}
	c.SuccessMessage("Cart updated", cart)
}

// RemoveItem handles DELETE /api/cart/{owner}/{productRef}.
func (cc *CartController) RemoveItem(c *ctx.Context) {
	cart, err := cc.service.RemoveItem(c.Context(), c.Param("owner"), c.Param("productRef"))
	if err != nil {
		fail(c, "Error removing from cart", err)
		return
	}
	c.SuccessMessage("Item removed from cart", cart)
}

// Clear handles DELETE /api/cart/{owner}.
func (cc *CartController) Clear(c *ctx.Context) {
	if err := cc.service.ClearCart(c.Context(), c.Param("owner")); err != nil {
		fail(c, "Error clearing cart", err)
		return
	}
	c.SuccessMessage("Cart cleared successfully", nil)
}

// fail maps a service error onto the response envelope. Anything
// unrecognised is a 500 carrying operation as its message.
func fail(c *ctx.Context, operation string, err error) {
	var verr *services.ValidationError

	switch {
	case errors.As(err, &verr):
		c.ErrorDetail(http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, services.ErrInsufficientStock):
		c.Error(http.StatusBadRequest, "Insufficient stock available")
	case errors.Is(err, services.ErrProductNotFound):
		c.NotFound("Product not found")
	case errors.Is(err, services.ErrCartNotFound):
		c.NotFound("Cart not found")
	case errors.Is(err, services.ErrItemNotFound):
		c.NotFound("Item not found in cart")
	case errors.Is(err, services.ErrConflict):
		c.Error(http.StatusConflict, "Cart was modified concurrently, please retry")
	default:
		c.InternalError(operation, err)
	}
}
