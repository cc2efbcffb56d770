// Package memory is an in-process storage.Store keyed by integer ids. It backs
// tests and single-node deployments without Postgres.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hongminglow/bank-customer-api/internal/models"
	"github.com/hongminglow/bank-customer-api/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store keeps every entity in id-keyed maps. Credential updates are serialised
// per user; everything else is guarded by a single RWMutex.
type Store struct {
	mu sync.RWMutex

	nextID map[string]int64

	users           map[int64]models.User
	credentials     map[int64]models.Credential
	roles           map[int64]models.Role
	permissions     map[int64]models.Permission
	rolePermissions []models.RolePermission
	grants          []models.UserRoleGrant
	banks           map[int64]models.Bank
	accounts        map[int64]models.Account
	guardianships   []models.GuardianRelationship

	credMu    sync.Mutex
	credLocks map[int64]*sync.Mutex
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nextID:      map[string]int64{},
		users:       map[int64]models.User{},
		credentials: map[int64]models.Credential{},
		roles:       map[int64]models.Role{},
		permissions: map[int64]models.Permission{},
		banks:       map[int64]models.Bank{},
		accounts:    map[int64]models.Account{},
		credLocks:   map[int64]*sync.Mutex{},
	}
}

// NewSeeded returns a store preloaded with seed.
func NewSeeded(seed storage.Seed) *Store {
	s := New()
	for _, role := range seed.Roles {
		s.PutRole(role)
	}
	for _, perm := range seed.Permissions {
		s.PutPermission(perm)
	}
	for _, edge := range seed.RolePermissions {
		s.PutRolePermission(edge)
	}
	return s
}

func (s *Store) id(table string, want int64) int64 {
	if want > 0 {
		if want > s.nextID[table] {
			s.nextID[table] = want
		}
		return want
	}
	s.nextID[table]++
	return s.nextID[table]
}

// PutRole inserts or replaces a role, assigning an id when ID is zero.
func (s *Store) PutRole(role models.Role) models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	role.ID = s.id("roles", role.ID)
	s.roles[role.ID] = role
	return role
}

// PutPermission inserts or replaces a permission.
func (s *Store) PutPermission(perm models.Permission) models.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	perm.ID = s.id("permissions", perm.ID)
	s.permissions[perm.ID] = perm
	return perm
}

// PutRolePermission inserts or replaces a role->permission edge.
func (s *Store) PutRolePermission(edge models.RolePermission) models.RolePermission {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge.ID = s.id("role_permissions", edge.ID)
	for i, existing := range s.rolePermissions {
		if existing.ID == edge.ID {
			s.rolePermissions[i] = edge
			return edge
		}
	}
	s.rolePermissions = append(s.rolePermissions, edge)
	return edge
}

// PutGrant inserts or replaces a user role grant.
func (s *Store) PutGrant(grant models.UserRoleGrant) models.UserRoleGrant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putGrantLocked(grant)
}

func (s *Store) putGrantLocked(grant models.UserRoleGrant) models.UserRoleGrant {
	grant.ID = s.id("user_roles", grant.ID)
	for i, existing := range s.grants {
		if existing.ID == grant.ID {
			s.grants[i] = grant
			return grant
		}
	}
	s.grants = append(s.grants, grant)
	return grant
}

// PutBank inserts or replaces a bank.
func (s *Store) PutBank(bank models.Bank) models.Bank {
	s.mu.Lock()
	defer s.mu.Unlock()
	bank.ID = s.id("banks", bank.ID)
	s.banks[bank.ID] = bank
	return bank
}

// PutAccount inserts or replaces an account.
func (s *Store) PutAccount(acc models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc.ID = s.id("accounts", acc.ID)
	s.accounts[acc.ID] = acc
	return acc
}

// PutGuardianship inserts a guardian relationship.
func (s *Store) PutGuardianship(rel models.GuardianRelationship) models.GuardianRelationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel.ID = s.id("guardian_relationships", rel.ID)
	s.guardianships = append(s.guardianships, rel)
	return rel
}

// RoleByName returns the role with the given name.
func (s *Store) RoleByName(name string) (models.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roleByNameLocked(name)
}

func (s *Store) roleByNameLocked(name string) (models.Role, bool) {
	for _, role := range s.roles {
		if role.Name == name {
			return role, true
		}
	}
	return models.Role{}, false
}

// Grants returns a copy of the grants held by userID.
func (s *Store) Grants(userID int64) []models.UserRoleGrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.UserRoleGrant
	for _, g := range s.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out
}

func (s *Store) FindActiveUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Active && user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// GetCredential returns a copy of the stored credential.
func (s *Store) GetCredential(_ context.Context, userID int64) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[userID]
	if !ok {
		return models.Credential{}, storage.ErrNotFound
	}
	return cred, nil
}

func (s *Store) credLock(userID int64) *sync.Mutex {
	s.credMu.Lock()
	defer s.credMu.Unlock()
	l, ok := s.credLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.credLocks[userID] = l
	}
	return l
}

// UpdateCredential holds the user's credential lock for the whole
// read-modify-write, so concurrent logins never lose a counter update.
func (s *Store) UpdateCredential(ctx context.Context, userID int64, fn storage.CredentialUpdater) (models.Credential, error) {
	lock := s.credLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cred, err := s.GetCredential(ctx, userID)
	if err != nil {
		return models.Credential{}, err
	}
	if cred.LockedUntil != nil {
		until := *cred.LockedUntil
		cred.LockedUntil = &until
	}
	if err := fn(&cred); err != nil {
		return models.Credential{}, err
	}

	s.mu.Lock()
	s.credentials[userID] = cred
	s.mu.Unlock()
	return cred, nil
}

func (s *Store) LoadGrantGraph(_ context.Context, userID int64) (models.GrantGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph := models.GrantGraph{
		Roles:       map[int64]models.Role{},
		Permissions: map[int64]models.Permission{},
		Banks:       map[int64]models.Bank{},
		Accounts:    map[int64]models.Account{},
	}
	for _, grant := range s.grants {
		if grant.UserID != userID {
			continue
		}
		graph.Grants = append(graph.Grants, grant)
		if role, ok := s.roles[grant.RoleID]; ok {
			graph.Roles[role.ID] = role
		}
		if grant.BankID != nil {
			if bank, ok := s.banks[*grant.BankID]; ok {
				graph.Banks[bank.ID] = bank
			}
		}
		if grant.AccountID != nil {
			if acc, ok := s.accounts[*grant.AccountID]; ok {
				graph.Accounts[acc.ID] = acc
				if bank, ok := s.banks[acc.BankID]; ok {
					graph.Banks[bank.ID] = bank
				}
			}
		}
	}
	for _, edge := range s.rolePermissions {
		if _, ok := graph.Roles[edge.RoleID]; !ok {
			continue
		}
		graph.RolePermissions = append(graph.RolePermissions, edge)
		if perm, ok := s.permissions[edge.PermissionID]; ok {
			graph.Permissions[perm.ID] = perm
		}
	}
	return graph, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User, cred models.Credential, defaultRole string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}

	user.ID = s.id("users", 0)
	s.users[user.ID] = user

	cred.ID = s.id("user_credentials", 0)
	cred.UserID = user.ID
	s.credentials[user.ID] = cred

	if role, ok := s.roleByNameLocked(defaultRole); ok {
		s.putGrantLocked(models.UserRoleGrant{
			UserID:     user.ID,
			RoleID:     role.ID,
			AssignedAt: user.CreatedAt,
			Active:     true,
		})
	}
	return user, nil
}

func (s *Store) SetUserActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.Active = active
	s.users[id] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) UpdateUserProfile(_ context.Context, id int64, update models.ProfileUpdate, at time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.PhoneNumber = update.PhoneNumber
	user.Address = update.Address
	user.UpdatedAt = at
	s.users[id] = user
	return user, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if user.Active {
		return storage.ErrUserActive
	}

	delete(s.users, id)
	delete(s.credentials, id)
	s.grants = slices.DeleteFunc(s.grants, func(g models.UserRoleGrant) bool {
		return g.UserID == id
	})
	s.guardianships = slices.DeleteFunc(s.guardianships, func(rel models.GuardianRelationship) bool {
		return rel.GuardianUserID == id || rel.MinorUserID == id
	})
	return nil
}

func (s *Store) ListGuardianships(_ context.Context, userID int64) ([]models.GuardianRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.GuardianRelationship
	for _, rel := range s.guardianships {
		if rel.GuardianUserID == userID || rel.MinorUserID == userID {
			out = append(out, rel)
		}
	}
	return out, nil
}
