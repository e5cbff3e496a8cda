// Package ctx gives handlers a single *Context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func (oc *OrderController) List(c *ctx.Context) {
//	    c.OK(response.Body{"orders": orders})
//	}
//
//	router.Post("/list", "order.list", ctx.Wrap(oc.List))
package ctx

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, "" if absent.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the request-scoped logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

func (c *Context) ClientIP() string { return middleware.ClientIP(c.R) }

// Claims returns the session claims resolved by session.Manager.Middleware.
func (c *Context) Claims() (*auth.Claims, bool) {
	return session.FromCtx(c.R.Context())
}

// UserID returns the signed-in shopper's id, or 0.
func (c *Context) UserID() uint {
	if claims, ok := c.Claims(); ok && claims.Scope == auth.ScopeUser {
		return claims.UserID
	}
	return 0
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes a
// 400 response and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.Fail(http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v with code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// OK sends 200 with body and success=true.
func (c *Context) OK(body response.Body) {
	c.status = http.StatusOK
	response.OK(c.W, body)
}

// Created sends 201 with body and success=true.
func (c *Context) Created(body response.Body) {
	c.status = http.StatusCreated
	response.Created(c.W, body)
}

// Fail sends success=false with message.
func (c *Context) Fail(code int, message string) {
	c.status = code
	response.Fail(c.W, code, message)
}

func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusBadRequest
	response.ValidationError(c.W, errs)
}

func (c *Context) Unauthorized() {
	c.status = http.StatusUnauthorized
	response.Unauthorized(c.W)
}

// NotFound sends 404 with an optional message.
func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Fail(http.StatusNotFound, msg)
}

// WrittenStatus returns the status written through the helpers, or 0.
func (c *Context) WrittenStatus() int { return c.status }
