package routes

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

const apiVersion = "1.0.0"

func RegisterAPI(r *router.Router, cart *controllers.CartController) {
	r.Get("/", "home", ctx.Wrap(home))

	api := r.Group("/api/cart")
	api.Post("/add", "cart.add", ctx.Wrap(cart.Add))
	api.Get("/{owner}", "cart.show", ctx.Wrap(cart.Show))
	api.Put("/update", "cart.update", ctx.Wrap(cart.Update))
	api.Delete("/{owner}/{productRef}", "cart.items.destroy", ctx.Wrap(cart.RemoveItem))
	api.Delete("/{owner}", "cart.clear", ctx.Wrap(cart.Clear))
}

func home(c *ctx.Context) {
	c.JSON(http.StatusOK, map[string]any{
		"message": "E-Commerce API is running",
		"version": apiVersion,
		"endpoints": map[string]string{
			"cart": "/api/cart",
		},
	})
}
