package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxTier   contextKey = "retailer_tier"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

func TierFromContext(ctx context.Context) enums.RetailerTier {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTier).(enums.RetailerTier); ok {
		return v
	}
	return ""
}

// WithUser seeds the context with the authenticated actor. Exposed for
// handler tests.
func WithUser(ctx context.Context, userID uuid.UUID, role enums.UserRole, tier enums.RetailerTier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if tier != "" {
		ctx = context.WithValue(ctx, ctxTier, tier)
	}
	return ctx
}
