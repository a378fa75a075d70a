package auth

import (
	"context"
	"net/http"
)

// ContextKey is used for storing the principal in request context.
type ContextKey string

const (
	PrincipalKey ContextKey = "principal"
)

// ErrorWriter writes the response for a failed required authentication.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Require creates middleware that rejects unauthenticated requests through
// onError and stores the principal for authenticated ones.
func (g *Guard) Require(onError ErrorWriter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID, err := g.Authenticate(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next(w, r.WithContext(WithPrincipal(r.Context(), Authenticated(userID))))
		}
	}
}

// Optional creates middleware that stores the caller's principal, anonymous
// or not, and always continues.
func (g *Guard) Optional() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(WithPrincipal(r.Context(), g.Identify(r))))
		}
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom returns the principal stored in ctx, or Anonymous.
func PrincipalFrom(ctx context.Context) Principal {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	if !ok {
		return Anonymous()
	}
	return p
}

// UserID returns the authenticated caller stored in ctx.
func UserID(ctx context.Context) (string, bool) {
	return PrincipalFrom(ctx).UserID()
}
