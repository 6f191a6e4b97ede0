// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Roles recognised by the HTTP layer.
const (
	RoleAdmin     = "ADMIN"
	RoleApprover  = "APPROVER"
	RoleWarehouse = "WAREHOUSE"
	RoleRequester = "REQUESTER"
	RoleValidator = "VALIDATOR"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID     int64
	NationalID string
	Name       string
	Roles      []string
	UnitID     *int64
}

type userContextKey struct{}

type clientIPKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or zero.
func GetUserID(ctx context.Context) int64 {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return 0
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithClientIP stores the caller address used by the audit trail.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// GetClientIP returns the caller address or empty string.
func GetClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}
