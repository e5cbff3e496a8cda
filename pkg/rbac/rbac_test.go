package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

func run(guard func(http.Handler) http.Handler, claims *auth.Claims) int {
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if claims != nil {
		req = req.WithContext(session.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequire(t *testing.T) {
	user := &auth.Claims{UserID: 1, Scope: auth.ScopeUser}
	admin := &auth.Claims{Scope: auth.ScopeAdmin}

	assert.Equal(t, http.StatusUnauthorized, run(rbac.User(), nil))
	assert.Equal(t, http.StatusNoContent, run(rbac.User(), user))
	assert.Equal(t, http.StatusUnauthorized, run(rbac.User(), admin))

	assert.Equal(t, http.StatusNoContent, run(rbac.Admin(), admin))
	assert.Equal(t, http.StatusUnauthorized, run(rbac.Admin(), user))
}
