package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"account-ledger/internal/auth"
	"account-ledger/internal/errors"
)

type identityKey struct{}

// AuthMiddleware validates the bearer token on every request before any
// ledger operation runs, and passes the resolved identity through the request
// context. Handlers read it back with IdentityFrom; there is no shared
// mutable "current user" anywhere.
func AuthMiddleware(manager *auth.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, errors.ErrUnauthenticated)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, errors.ErrUnauthenticated.WithDetails("authorization header must be of form 'Bearer <token>'"))
				return
			}

			identity, err := manager.Authenticate(parts[1])
			if err != nil {
				writeServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity stored by AuthMiddleware.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*auth.Identity)
	return identity, ok
}
