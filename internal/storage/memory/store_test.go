package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/bank-customer-api/internal/models"
	"github.com/hongminglow/bank-customer-api/internal/storage"
)

func newUser(email string) models.User {
	now := time.Now().UTC()
	return models.User{FirstName: "Test", LastName: "User", Email: email, Active: true, CreatedAt: now, UpdatedAt: now}
}

func TestCreateUserAssignsDefaultRole(t *testing.T) {
	s := NewSeeded(storage.DefaultSeed())
	ctx := context.Background()

	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{PasswordHash: "h", PasswordKey: "k"}, models.RoleAccountHolder)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	cred, err := s.GetCredential(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, cred.UserID)
	assert.Equal(t, "h", cred.PasswordHash)

	graph, err := s.LoadGrantGraph(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, graph.Grants, 1)
	assert.Equal(t, models.RoleAccountHolder, graph.Roles[graph.Grants[0].RoleID].Name)
	assert.Len(t, graph.RolePermissions, 4)
	assert.Len(t, graph.Permissions, 4)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestFindActiveUserByEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	require.NoError(t, err)

	found, err := s.FindActiveUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.FindActiveUserByEmail(ctx, "A@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SetUserActive(ctx, user.ID, false))
	_, err = s.FindActiveUserByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exists, err := s.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, s.SetUserActive(ctx, 999, false), storage.ErrNotFound)
}

func TestUpdateCredentialAbortsOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.UpdateCredential(ctx, user.ID, func(c *models.Credential) error {
		c.FailedLoginAttempts = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cred, err := s.GetCredential(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, cred.FailedLoginAttempts)

	_, err = s.UpdateCredential(ctx, 404, func(*models.Credential) error { return nil })
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateCredentialSerialisesWriters(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateCredential(ctx, user.ID, func(c *models.Credential) error {
				c.FailedLoginAttempts++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cred, err := s.GetCredential(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, cred.FailedLoginAttempts)
}

func TestLoadGrantGraphCollectsScopes(t *testing.T) {
	s := NewSeeded(storage.DefaultSeed())
	ctx := context.Background()
	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	require.NoError(t, err)

	bank := s.PutBank(models.Bank{Name: "Coastal Bank"})
	other := s.PutBank(models.Bank{Name: "Hill Bank"})
	acc := s.PutAccount(models.Account{BankID: bank.ID, AccountNumber: "ACC-1"})
	poa, ok := s.RoleByName(models.RolePOA)
	require.True(t, ok)
	s.PutGrant(models.UserRoleGrant{UserID: user.ID, RoleID: poa.ID, AccountID: &acc.ID, Active: true})
	s.PutGrant(models.UserRoleGrant{UserID: user.ID + 1, RoleID: poa.ID, BankID: &other.ID, Active: true})

	graph, err := s.LoadGrantGraph(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, graph.Grants, 1)
	assert.Contains(t, graph.Accounts, acc.ID)
	assert.Contains(t, graph.Banks, bank.ID)
	assert.NotContains(t, graph.Banks, other.ID)
}

func TestListGuardianships(t *testing.T) {
	s := New()
	s.PutGuardianship(models.GuardianRelationship{GuardianUserID: 1, MinorUserID: 2, Active: true})
	s.PutGuardianship(models.GuardianRelationship{GuardianUserID: 3, MinorUserID: 4, Active: true})

	rels, err := s.ListGuardianships(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, int64(1), rels[0].GuardianUserID)
}

func TestListUsersOrderedByID(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := s.CreateUser(ctx, newUser(email), models.Credential{}, "")
		require.NoError(t, err)
	}

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i, user := range users {
		assert.Equal(t, int64(i+1), user.ID)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, "")
	require.NoError(t, err)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	updated, err := s.UpdateUserProfile(ctx, user.ID, models.ProfileUpdate{
		FirstName:   "New",
		LastName:    "Name",
		PhoneNumber: "+91 8123456789",
		Address:     "1 Park Street, Kolkata",
	}, at)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, "1 Park Street, Kolkata", updated.Address)
	assert.Equal(t, at, updated.UpdatedAt)
	assert.Equal(t, "a@example.com", updated.Email)

	_, err = s.UpdateUserProfile(ctx, 404, models.ProfileUpdate{}, at)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteUserRequiresInactive(t *testing.T) {
	s := NewSeeded(storage.DefaultSeed())
	ctx := context.Background()
	user, err := s.CreateUser(ctx, newUser("a@example.com"), models.Credential{}, models.RoleAccountHolder)
	require.NoError(t, err)
	other, err := s.CreateUser(ctx, newUser("b@example.com"), models.Credential{}, "")
	require.NoError(t, err)
	s.PutGuardianship(models.GuardianRelationship{GuardianUserID: other.ID, MinorUserID: user.ID, Active: true})

	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), storage.ErrUserActive)

	require.NoError(t, s.SetUserActive(ctx, user.ID, false))
	require.NoError(t, s.DeleteUser(ctx, user.ID))

	_, err = s.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetCredential(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, s.Grants(user.ID))
	rels, err := s.ListGuardianships(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, rels)

	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), storage.ErrNotFound)
}
