// Package auth resolves the session identity for API requests. The
// surrounding router applies Middleware to the protected subtree; the
// verified address travels in the request context and handlers read it
// with AddressFromContext.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/lifeafter619/mail-gateway/internal/token"
)

type contextKey struct{}

var addressKey contextKey

// Middleware verifies the Authorization bearer token and stores the
// address claim in the request context. Requests without a valid token
// get 401 with no detail about why verification failed.
func Middleware(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			address, err := tokens.Verify(bearerToken(r))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), addressKey, address)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AddressFromContext returns the authenticated address, or "" if the
// request did not pass through Middleware.
func AddressFromContext(ctx context.Context) string {
	address, _ := ctx.Value(addressKey).(string)
	return address
}

// WithAddress returns a context carrying the given address. Used by
// tests and by entry points that authenticate out of band.
func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, addressKey, address)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return header
}
