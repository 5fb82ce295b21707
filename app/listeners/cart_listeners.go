// Package listeners subscribes to cart events.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Register attaches the cart listeners to bus.
func Register(bus *event.Bus) {
	for _, name := range []string{
		services.EventItemAdded,
		services.EventItemUpdated,
		services.EventItemRemoved,
		services.EventCartCleared,
	} {
		bus.Listen(name, CountCartEvent)
		bus.Listen(name, LogCartEvent)
	}
}

// CountCartEvent feeds the cart event counter and, for mutations that
// leave a cart behind, the cart value histogram.
func CountCartEvent(_ context.Context, e event.Event) {
	metrics.CartEvents.WithLabelValues(e.Name()).Inc()

	if ce, ok := e.(services.CartEvent); ok && ce.Event != services.EventCartCleared {
		metrics.CartValue.Observe(ce.Total)
	}
}

func LogCartEvent(ctx context.Context, e event.Event) {
	ce, ok := e.(services.CartEvent)
	if !ok {
		return
	}

	log := logger.WithCtx(ctx).With("event", ce.Event, "owner", ce.Owner)
	if !ce.ProductRef.IsZero() {
		log = log.With("product", ce.ProductRef.Hex(), "quantity", ce.Quantity)
	}
	log.Info("cart event", "total", ce.Total)
}
