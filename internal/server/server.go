// Package server owns the process lifecycle: connecting the datastores,
// building the HTTP kernel and serving until a shutdown signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/listeners"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// Deps are the long-lived dependencies of a running process.
type Deps struct {
	Mongo    *database.Mongo
	Redis    *redis.Client
	Products *repositories.ProductRepository
	Carts    *repositories.CartRepository
	Catalog  *repositories.CachedCatalog
	Events   *event.Bus
	Cart     *services.CartService

	logSink   *logger.MongoHandler
	cacheFill *workerpool.Pool
}

// Boot connects MongoDB and wires the cart service. Redis is only dialled
// when PRODUCT_CACHE_TTL turns the product cache on.
func Boot(ctx context.Context) (*Deps, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	mongoDB, err := database.Connect(ctx, config.MongoURI(), config.MongoDatabase(), config.MongoTimeout())
	if err != nil {
		return nil, err
	}
	d := &Deps{Mongo: mongoDB}

	if config.LogToMongo() {
		d.logSink = logger.NewMongoHandler(ctx, mongoDB.Collection(config.LogMongoCollection()), slog.LevelInfo)
		logger.Attach(d.logSink)
	}

	d.Redis = connectProductCache(ctx)

	d.Products = repositories.NewProductRepository(mongoDB)
	d.Carts = repositories.NewCartRepository(mongoDB)
	d.Catalog = repositories.NewCachedCatalog(d.Products, cache.New(d.Redis, "storefront:"), config.ProductCacheTTL())
	if d.Redis != nil {
		d.cacheFill = workerpool.New("product-cache", 2, 256)
		d.Catalog.FillWith(d.cacheFill)
	}

	d.Events = event.NewBus()
	listeners.Register(d.Events)

	d.Cart = services.NewCartService(d.Carts, d.Catalog,
		services.WithEvents(d.Events),
		services.WithMaxAttempts(config.CartWriteRetries()),
	)
	return d, nil
}

// connectProductCache returns a Redis client for the product cache, or nil
// when the cache is off or Redis cannot be reached.
func connectProductCache(ctx context.Context) *redis.Client {
	addr := config.RedisAddr()
	if config.ProductCacheTTL() <= 0 || addr == "" {
		return nil
	}
	rdb, err := cache.Connect(ctx, addr, config.RedisPassword())
	if err != nil {
		logger.Warn("redis unavailable, product cache disabled", "addr", addr, "error", err)
		return nil
	}
	return rdb
}

// EnsureIndexes creates the cart and product indexes.
func (d *Deps) EnsureIndexes(ctx context.Context) ([]string, error) {
	carts, err := d.Carts.EnsureIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("carts indexes: %w", err)
	}
	products, err := d.Products.EnsureIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("products indexes: %w", err)
	}
	return append(carts, products...), nil
}

// Close drains pending cache fills, flushes the log sink and disconnects
// the datastores.
func (d *Deps) Close(ctx context.Context) error {
	if d.cacheFill != nil {
		d.cacheFill.Shutdown()
	}
	if d.logSink != nil {
		d.logSink.Close()
	}
	var errs []error
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	errs = append(errs, d.Mongo.Close(ctx))
	return errors.Join(errs...)
}

// Start boots the dependencies and serves HTTP on APP_PORT until SIGINT
// or SIGTERM.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout())
		defer cancel()
		if err := d.Close(closeCtx); err != nil {
			logger.Error("closing dependencies", "error", err)
		}
	}()

	if _, err := d.EnsureIndexes(ctx); err != nil {
		return err
	}

	k := kernel.NewHTTPKernel(controllers.NewCartController(d.Cart))
	go k.Limiter().Run(ctx.Done())

	ln, err := net.Listen("tcp", ":"+config.AppPort())
	if err != nil {
		return err
	}
	logger.Info("storefront listening", "addr", ln.Addr().String(), "env", config.AppEnv())

	return Serve(ctx, ln, k.Handler(), config.ShutdownTimeout())
}

// Serve runs handler on ln until ctx is done, then drains in-flight
// requests for at most shutdownTimeout.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
