package kernel_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/internal/kernel"
)

func newKernel() *kernel.HTTPKernel {
	svc := services.NewCartService(repositories.NewMemoryCartRepository(), repositories.NewMemoryProductRepository())
	return kernel.NewHTTPKernel(controllers.NewCartController(svc))
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestKernelServesRoutesAndMetrics(t *testing.T) {
	h := newKernel().Handler()

	rec := serve(h, http.MethodGet, "/api/cart/guest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"success":true,"data":{"owner":"guest","items":[],"total":0}}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

func TestKernelFallbacksUseEnvelope(t *testing.T) {
	h := newKernel().Handler()

	rec := serve(h, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, rec.Body.String())

	rec = serve(h, http.MethodPatch, "/api/cart/add")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestKernelListsNamedRoutes(t *testing.T) {
	names := map[string]bool{}
	for _, ri := range newKernel().Router().Routes() {
		names[ri.Name] = true
	}
	for _, want := range []string{"home", "cart.add", "cart.show", "cart.update", "cart.items.destroy", "cart.clear"} {
		assert.True(t, names[want], want)
	}
}
