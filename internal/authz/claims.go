package authz

import (
	"context"
	"slices"
	"time"
)

// Claims is the decoded claim set of an already validated session token.
type Claims struct {
	UserID      int64
	Email       string
	Name        string
	Kind        string
	Roles       []string
	Permissions []string
	BankRoles   map[int64]string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// HasRole reports whether any role claim equals role.
func (c *Claims) HasRole(role string) bool {
	return c != nil && slices.Contains(c.Roles, role)
}

// HasPermission reports whether any permission claim equals permission.
func (c *Claims) HasPermission(permission string) bool {
	return c != nil && slices.Contains(c.Permissions, permission)
}

type claimsContextKey struct{}

// WithClaims returns a context carrying the caller's claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// FromContext returns the caller's claims, or nil when the request is
// unauthenticated.
func FromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}
