// Package ctx wraps a request/response pair so handlers take a single
// argument with helpers for params, binding and the response envelope.
//
//	router.Get("/api/cart/{owner}", "cart.show", ctx.Wrap(func(c *ctx.Context) {
//	    c.Success(map[string]any{"owner": c.Param("owner")})
//	}))
package ctx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap adapts h to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/cart/{owner}" → c.Param("owner")).
func (c *Context) Param(key string) string {
	return strings.TrimSpace(chi.URLParam(c.R, key))
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the request-scoped logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// BindJSON decodes the body into dest and validates it. On failure it writes
// a 400 envelope and returns false; the handler should return immediately.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		response.BadRequest(c.W, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		response.ValidationError(c.W, errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v verbatim with the given status.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

func (c *Context) Success(data any) {
	response.Success(c.W, data)
}

func (c *Context) SuccessMessage(message string, data any) {
	response.SuccessMessage(c.W, message, data)
}

func (c *Context) Error(code int, message string) {
	response.Error(c.W, code, message)
}

func (c *Context) ErrorDetail(code int, message string, detail any) {
	response.ErrorDetail(c.W, code, message, detail)
}

func (c *Context) NotFound(message string) {
	c.Error(http.StatusNotFound, message)
}

// InternalError logs err and answers 500 with message naming the failed
// operation.
func (c *Context) InternalError(message string, err error) {
	c.Log().Error(message, "error", err)
	response.InternalError(c.W, message, err)
}
