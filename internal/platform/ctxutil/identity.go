package ctxutil

import "context"

type identityKey struct{}

// Identity is what the external auth service vouched for. The core only reads it.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}
