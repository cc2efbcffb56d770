package storage

import "github.com/hongminglow/bank-customer-api/internal/models"

// Seed is the baseline role/permission catalogue every store starts with.
type Seed struct {
	Roles           []models.Role
	Permissions     []models.Permission
	RolePermissions []models.RolePermission
}

// DefaultSeed returns the built-in catalogue. IDs are stable so SQL seeding
// stays idempotent.
func DefaultSeed() Seed {
	roles := []models.Role{
		{ID: 1, Name: models.RoleAccountHolder, Description: "Primary holder of one or more accounts", Active: true},
		{ID: 2, Name: models.RolePOA, Description: "Power of attorney over a customer account", Active: true},
		{ID: 3, Name: models.RoleGuardian, Description: "Guardian acting for a minor", Active: true},
		{ID: 4, Name: models.RoleBankEmployee, Description: "Branch staff", Active: true},
		{ID: 5, Name: models.RoleBankManager, Description: "Bank manager", Active: true},
		{ID: 6, Name: models.RoleAdmin, Description: "System administrator", Active: true},
	}

	permissions := []models.Permission{
		{ID: 1, Name: "CREATE_USER", Module: "USER", Description: "Create users", Active: true},
		{ID: 2, Name: "READ_USER", Module: "USER", Description: "View users", Active: true},
		{ID: 3, Name: "UPDATE_USER", Module: "USER", Description: "Update users", Active: true},
		{ID: 4, Name: "DELETE_USER", Module: "USER", Description: "Delete users", Active: true},
		{ID: 5, Name: "CREATE_ACCOUNT", Module: "ACCOUNT", Description: "Open accounts", Active: true},
		{ID: 6, Name: "READ_ACCOUNT", Module: "ACCOUNT", Description: "View accounts", Active: true},
		{ID: 7, Name: "UPDATE_ACCOUNT", Module: "ACCOUNT", Description: "Update accounts", Active: true},
		{ID: 8, Name: "DELETE_ACCOUNT", Module: "ACCOUNT", Description: "Close accounts", Active: true},
		{ID: 9, Name: "DEPOSIT_MONEY", Module: "TRANSACTION", Description: "Deposit funds", Active: true},
		{ID: 10, Name: "WITHDRAW_MONEY", Module: "TRANSACTION", Description: "Withdraw funds", Active: true},
	}

	grants := map[int64][]int64{
		1: {2, 6, 9, 10},
		2: {6, 9, 10},
		3: {2, 6, 9},
		4: {2, 5, 6, 7, 9},
		5: {1, 2, 3, 5, 6, 7, 8, 9, 10},
		6: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}

	var edges []models.RolePermission
	var next int64 = 1
	for _, role := range roles {
		for _, permID := range grants[role.ID] {
			edges = append(edges, models.RolePermission{ID: next, RoleID: role.ID, PermissionID: permID, Active: true})
			next++
		}
	}

	return Seed{Roles: roles, Permissions: permissions, RolePermissions: edges}
}
