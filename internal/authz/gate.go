// Package authz holds the request-time authorization gates. Gates inspect the
// caller's decoded claims only; they never touch storage.
package authz

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

// Reason classifies a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonWriteAccess     Reason = "write_access"
	ReasonUserKind        Reason = "user_kind"
	ReasonAdmin           Reason = "admin"
	ReasonPermission      Reason = "permission"
)

// AdminRoles are the role claims that satisfy the Admin gate.
var AdminRoles = []string{models.RoleAdmin, models.RoleBankManager}

// Denial is the structured result of a failed gate. Status is 401 for
// unauthenticated callers and 403 otherwise.
type Denial struct {
	Reason           Reason   `json:"-"`
	Status           int      `json:"statusCode"`
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	UserKind         string   `json:"userKind"`
	CurrentRoles     []string `json:"currentRoles,omitempty"`
	RequiredRoles    []string `json:"requiredRoles,omitempty"`
	AllowedUserKinds []string `json:"allowedUserKinds,omitempty"`
	RequiredPerms    []string `json:"requiredPermissions,omitempty"`
}

func (d *Denial) Error() string {
	if d.Message == "" {
		return string(d.Reason)
	}
	return d.Message
}

// Gate allows the caller by returning nil, or denies with a Denial.
type Gate func(claims *Claims) *Denial

func unauthenticatedDenial() *Denial {
	return &Denial{Reason: ReasonUnauthenticated, Status: http.StatusUnauthorized}
}

// Pipeline evaluates gates in order and returns the first denial. An absent
// caller is denied before any gate runs.
func Pipeline(gates ...Gate) Gate {
	return func(claims *Claims) *Denial {
		if claims == nil {
			return unauthenticatedDenial()
		}
		for _, gate := range gates {
			if denial := gate(claims); denial != nil {
				return denial
			}
		}
		return nil
	}
}

// WriteAccess denies ViewOnly callers.
func WriteAccess() Gate {
	return func(claims *Claims) *Denial {
		if claims == nil {
			return unauthenticatedDenial()
		}
		if claims.Kind == models.KindViewOnly.String() {
			return forbidden(ReasonWriteAccess, claims, "Access Denied: ViewOnly users cannot perform write operations")
		}
		return nil
	}
}

// UserKinds allows only callers whose kind claim is one of allowed.
func UserKinds(allowed ...models.UserKind) Gate {
	names := make([]string, 0, len(allowed))
	for _, kind := range allowed {
		names = append(names, kind.String())
	}
	return func(claims *Claims) *Denial {
		if claims == nil {
			return unauthenticatedDenial()
		}
		if slices.Contains(names, claims.Kind) {
			return nil
		}
		d := forbidden(ReasonUserKind, claims, fmt.Sprintf(
			"Access Denied: This endpoint requires one of the following user types: %s. Current user type: %s",
			strings.Join(names, ", "), claims.Kind))
		d.AllowedUserKinds = slices.Clone(names)
		return d
	}
}

// Admin allows callers holding the ADMIN or BANK_MANAGER role.
func Admin() Gate {
	return func(claims *Claims) *Denial {
		if claims == nil {
			return unauthenticatedDenial()
		}
		for _, role := range AdminRoles {
			if claims.HasRole(role) {
				return nil
			}
		}
		d := forbidden(ReasonAdmin, claims, "Access Denied: This operation requires Administrator or Bank Manager privileges")
		d.CurrentRoles = append([]string{}, claims.Roles...)
		d.RequiredRoles = slices.Clone(AdminRoles)
		return d
	}
}

// AnyPermission allows callers holding at least one of the named permission claims.
func AnyPermission(permissions ...string) Gate {
	return func(claims *Claims) *Denial {
		if claims == nil {
			return unauthenticatedDenial()
		}
		for _, p := range permissions {
			if claims.HasPermission(p) {
				return nil
			}
		}
		d := forbidden(ReasonPermission, claims, fmt.Sprintf(
			"Access Denied: This operation requires one of the following permissions: %s",
			strings.Join(permissions, ", ")))
		d.RequiredPerms = slices.Clone(permissions)
		return d
	}
}

func forbidden(reason Reason, claims *Claims, message string) *Denial {
	return &Denial{
		Reason:   reason,
		Status:   http.StatusForbidden,
		Message:  message,
		UserKind: claims.Kind,
	}
}
