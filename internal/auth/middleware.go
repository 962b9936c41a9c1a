package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"tracker/internal/core"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the caller stored by the bearer middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// CallerID returns the authenticated user id, or 0 when there is none.
func CallerID(ctx context.Context) int64 {
	id, _ := FromContext(ctx)
	return id.UserID
}

// Middleware requires a valid access token in the Authorization header.
// Rejections are rendered by onError so the caller controls the body format.
func (i *Issuer) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			id, err := i.Verify(token, TypeAccess)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", fmt.Errorf("%w: Authentication credentials were not provided.", core.ErrUnauthorized)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: Invalid Authorization header format", core.ErrUnauthorized)
	}
	return parts[1], nil
}
