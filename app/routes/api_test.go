package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

func newRouter() *router.Router {
	svc := services.NewCartService(repositories.NewMemoryCartRepository(), repositories.NewMemoryProductRepository())
	r := router.New()
	routes.RegisterAPI(r, controllers.NewCartController(svc))
	return r
}

func TestRouteTable(t *testing.T) {
	r := newRouter()

	assert.Equal(t, []router.RouteInfo{
		{Method: http.MethodGet, Path: "/", Name: "home"},
		{Method: http.MethodPost, Path: "/api/cart/add", Name: "cart.add"},
		{Method: http.MethodPut, Path: "/api/cart/update", Name: "cart.update"},
		{Method: http.MethodDelete, Path: "/api/cart/{owner}", Name: "cart.clear"},
		{Method: http.MethodGet, Path: "/api/cart/{owner}", Name: "cart.show"},
		{Method: http.MethodDelete, Path: "/api/cart/{owner}/{productRef}", Name: "cart.items.destroy"},
	}, r.Routes())

	url, err := r.URL("cart.items.destroy", map[string]string{"owner": "u1", "productRef": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/cart/u1/abc", url)
}

func TestHome(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"E-Commerce API is running","version":"1.0.0","endpoints":{"cart":"/api/cart"}}`, rec.Body.String())
}
