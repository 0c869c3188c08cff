package testutil

import (
	"context"

	"github.com/brewcycle/brewcycle/internal/types"
)

// SetupContext returns a request context for a customer
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	ctx = types.SetRole(ctx, types.RoleCustomer)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}

// AsUser returns ctx acting as the customer userID
func AsUser(ctx context.Context, userID string) context.Context {
	return types.SetRole(types.SetUserID(ctx, userID), types.RoleCustomer)
}

// AsAdmin returns ctx acting as an admin
func AsAdmin(ctx context.Context) context.Context {
	return types.SetRole(types.SetUserID(ctx, "admin"), types.RoleAdmin)
}
