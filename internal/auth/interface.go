// Package auth guards the gateway's DAV routes. The gateway impersonates a
// single principal, so a provider only decides whether a request may pass.
package auth

import (
	"context"
	"net/http"
)

type identityKey struct{}

// Identity is the client credential a provider accepted.
type Identity struct {
	Method string
	User   string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by a provider, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Provider wraps the DAV routes.
type Provider interface {
	Middleware() func(http.Handler) http.Handler
}
