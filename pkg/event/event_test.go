package event_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/event"
)

type named string

func (n named) Name() string { return string(n) }

func TestFireCallsListenersInOrder(t *testing.T) {
	var bus event.Bus
	var calls []string

	bus.Listen("cart.cleared", func(_ context.Context, e event.Event) { calls = append(calls, "first:"+e.Name()) })
	bus.Listen("cart.cleared", func(_ context.Context, e event.Event) { calls = append(calls, "second:"+e.Name()) })
	bus.Listen("other", func(context.Context, event.Event) { calls = append(calls, "other") })

	bus.Fire(context.Background(), named("cart.cleared"))

	assert.Equal(t, []string{"first:cart.cleared", "second:cart.cleared"}, calls)
}

func TestFireOnNilBusIsNoop(t *testing.T) {
	var bus *event.Bus
	assert.NotPanics(t, func() { bus.Fire(context.Background(), named("x")) })
}
