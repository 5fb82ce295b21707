// Package kernel assembles the HTTP handler: global middleware, the
// metrics endpoint and the application routes.
package kernel

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

type HTTPKernel struct {
	router  *router.Router
	limiter *middleware.Limiter
}

// NewHTTPKernel builds the router. Global middleware, outermost first:
//
//  1. metrics, so latency covers everything below
//  2. recovery
//  3. request ID, before anything logs
//  4. access log
//  5. CORS
//  6. rate limit
func NewHTTPKernel(cart *controllers.CartController) *HTTPKernel {
	k := &HTTPKernel{
		router:  router.New(),
		limiter: middleware.NewLimiter(config.RateLimitPerMinute(), time.Minute).TrustForwardedFor(config.TrustProxy()),
	}

	r := k.router
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(config.CORSAllowedOrigins()...)))
	r.Use(k.limiter.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/metrics", metrics.Handler())
	routes.RegisterAPI(r, cart)

	return k
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Router() *router.Router { return k.router }

// Limiter exposes the rate limiter so the server can run its sweeper.
func (k *HTTPKernel) Limiter() *middleware.Limiter { return k.limiter }
