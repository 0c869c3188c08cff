package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxUserID    ContextKey = "ctx_user_id"
	CtxRole      ContextKey = "ctx_role"

	// Default values
	DefaultUserID = "00000000-0000-0000-0000-000000000000"
	SystemUserID  = "system"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

// Role is the coarse access level of the caller
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetRole returns the caller role, defaulting to customer
func GetRole(ctx context.Context) Role {
	if role, ok := ctx.Value(CtxRole).(Role); ok && role != "" {
		return role
	}
	return RoleCustomer
}

// IsAdmin reports whether the caller carries the admin role
func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == RoleAdmin
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetRole sets the caller role in the context
func SetRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, CtxRole, role)
}
