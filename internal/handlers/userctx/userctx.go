package userctx

import (
	"context"

	"github.com/Kampayn/kampayn-be/internal/models"
)

type ctxKey string

const callerKey ctxKey = "caller"

// Create a new context with the caller identity
func New(ctx context.Context, c models.AccessClaims) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// Extract the caller identity from the context
func FromContext(ctx context.Context) (models.AccessClaims, bool) {
	c, ok := ctx.Value(callerKey).(models.AccessClaims)
	return c, ok
}
