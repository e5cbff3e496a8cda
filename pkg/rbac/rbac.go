// Package rbac guards routes by session scope.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

// Require allows only requests whose session carries one of scopes.
// session.Manager.Middleware must run first.
func Require(scopes ...auth.Scope) func(http.Handler) http.Handler {
	allowed := make(map[auth.Scope]bool, len(scopes))
	for _, s := range scopes {
		allowed[s] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := session.FromCtx(r.Context())
			if !ok || !allowed[claims.Scope] {
				response.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// User is shorthand for Require(auth.ScopeUser).
func User() func(http.Handler) http.Handler { return Require(auth.ScopeUser) }

// Admin is shorthand for Require(auth.ScopeAdmin).
func Admin() func(http.Handler) http.Handler { return Require(auth.ScopeAdmin) }
