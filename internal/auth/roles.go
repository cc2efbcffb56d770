package auth

import (
	"time"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

// ResolveRoles flattens the grant graph into one ResolvedRole per effective
// grant, in grant order. Grants of the same role under different scopes each
// yield their own record. Ineffective grants are skipped, never reported.
func ResolveRoles(graph models.GrantGraph, now time.Time) []models.ResolvedRole {
	edges := make(map[int64][]models.RolePermission)
	for _, rp := range graph.RolePermissions {
		edges[rp.RoleID] = append(edges[rp.RoleID], rp)
	}

	resolved := make([]models.ResolvedRole, 0, len(graph.Grants))
	for _, grant := range graph.Grants {
		if !grant.Active {
			continue
		}
		if grant.ExpiresAt != nil && !now.Before(*grant.ExpiresAt) {
			continue
		}
		role, ok := graph.Roles[grant.RoleID]
		if !ok || !role.Active {
			continue
		}
		record, ok := scopeRecord(graph, grant)
		if !ok {
			continue
		}
		record.RoleName = role.Name
		record.Permissions = rolePermissions(graph, edges[role.ID])
		resolved = append(resolved, record)
	}
	return resolved
}

// scopeRecord labels the grant's bank/account scope. Only an explicit bank on
// the grant sets the bank fields; an account-only grant stays account scoped.
// It fails when the scope references an unknown entity or an account outside
// the granted bank.
func scopeRecord(graph models.GrantGraph, grant models.UserRoleGrant) (models.ResolvedRole, bool) {
	var record models.ResolvedRole

	if grant.AccountID != nil {
		acc, ok := graph.Accounts[*grant.AccountID]
		if !ok {
			return record, false
		}
		if grant.BankID != nil && acc.BankID != *grant.BankID {
			return record, false
		}
		number := acc.AccountNumber
		record.AccountNumber = &number
	}

	if grant.BankID != nil {
		bank, ok := graph.Banks[*grant.BankID]
		if !ok {
			return record, false
		}
		id, name := *grant.BankID, bank.Name
		record.BankID = &id
		record.BankName = &name
	}
	return record, true
}

func rolePermissions(graph models.GrantGraph, edges []models.RolePermission) []string {
	names := make([]string, 0, len(edges))
	seen := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		if !edge.Active {
			continue
		}
		perm, ok := graph.Permissions[edge.PermissionID]
		if !ok || !perm.Active {
			continue
		}
		if _, dup := seen[perm.Name]; dup {
			continue
		}
		seen[perm.Name] = struct{}{}
		names = append(names, perm.Name)
	}
	return names
}
