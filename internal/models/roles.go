package models

import "time"

const (
	RoleAccountHolder = "ACCOUNT_HOLDER"
	RoleAdmin         = "ADMIN"
	RoleBankManager   = "BANK_MANAGER"
	RoleBankEmployee  = "BANK_EMPLOYEE"
	RoleGuardian      = "GUARDIAN"
	RolePOA           = "POA"
)

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"isActive"`
}

type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Module      string `json:"module"`
	Active      bool   `json:"isActive"`
}

// RolePermission is the Role<->Permission edge. Edges are toggled
// individually through Active.
type RolePermission struct {
	ID           int64 `json:"id"`
	RoleID       int64 `json:"roleId"`
	PermissionID int64 `json:"permissionId"`
	Active       bool  `json:"isActive"`
}

// UserRoleGrant assigns a role to a user, optionally scoped to a bank or an
// account.
type UserRoleGrant struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	RoleID     int64      `json:"roleId"`
	BankID     *int64     `json:"bankId,omitempty"`
	AccountID  *int64     `json:"accountId,omitempty"`
	AssignedAt time.Time  `json:"assignedDate"`
	ExpiresAt  *time.Time `json:"expiryDate,omitempty"`
	Active     bool       `json:"isActive"`
}

// Bank is the subset of bank data needed to label bank-scoped grants.
type Bank struct {
	ID   int64
	Name string
}

// Account is the subset of account data needed to label account-scoped grants.
type Account struct {
	ID            int64
	BankID        int64
	AccountNumber string
}

// GrantGraph is an id-keyed snapshot of everything reachable from one user's
// grants. Relationships are resolved by lookup, never by embedded pointers.
type GrantGraph struct {
	Grants          []UserRoleGrant
	Roles           map[int64]Role
	Permissions     map[int64]Permission
	RolePermissions []RolePermission
	Banks           map[int64]Bank
	Accounts        map[int64]Account
}

// ResolvedRole is one effective grant flattened for the token and login response.
type ResolvedRole struct {
	RoleName      string   `json:"roleName"`
	BankName      *string  `json:"bankName,omitempty"`
	BankID        *int64   `json:"bankId,omitempty"`
	AccountNumber *string  `json:"accountNumber,omitempty"`
	Permissions   []string `json:"permissions"`
}
