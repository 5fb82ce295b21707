package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/bind"
)

type payload struct {
	Owner    string `json:"owner"    validate:"required"`
	Quantity *int   `json:"quantity" validate:"required,gte=1"`
}

func request(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestJSONDecodesValidBody(t *testing.T) {
	var p payload
	errs, err := bind.JSON(request(`{"owner":"u1","quantity":3}`), &p)

	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "u1", p.Owner)
	assert.Equal(t, 3, *p.Quantity)
}

func TestJSONReportsValidationErrors(t *testing.T) {
	var p payload
	errs, err := bind.JSON(request(`{"quantity":0}`), &p)

	require.NoError(t, err)
	assert.Contains(t, errs, "owner")
	assert.Contains(t, errs, "quantity")
}

func TestJSONRejectsMalformedAndEmptyBodies(t *testing.T) {
	var p payload
	_, err := bind.JSON(request(`{"owner":`), &p)
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = bind.JSON(request(``), &p)
	assert.EqualError(t, err, "request body is empty")
}

func TestJSONRejectsOversizedBody(t *testing.T) {
	config.Set("MAX_BODY_BYTES", "16")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "") })

	var p payload
	_, err := bind.JSON(request(`{"owner":"`+strings.Repeat("a", 64)+`"}`), &p)
	assert.ErrorContains(t, err, "request body too large")
}
