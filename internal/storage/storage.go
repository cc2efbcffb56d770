package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrUserActive indicates an operation that requires a deactivated user.
var ErrUserActive = errors.New("user is active")

// CredentialUpdater mutates a credential in place. Returning an error aborts
// the update and leaves the stored credential untouched.
type CredentialUpdater func(cred *models.Credential) error

// Store captures the user, credential and grant persistence the auth core
// depends on.
type Store interface {
	// FindActiveUserByEmail matches the email exactly, ignoring inactive users.
	FindActiveUserByEmail(ctx context.Context, email string) (models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	// ListUsers returns every user, active or not, ordered by id.
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, update models.ProfileUpdate, at time.Time) (models.User, error)
	// DeleteUser removes an inactive user with its credential, grants and
	// guardian edges. Active users fail with ErrUserActive.
	DeleteUser(ctx context.Context, id int64) error

	// UpdateCredential runs fn against the current credential while holding an
	// exclusive per-credential lock and persists the result atomically.
	UpdateCredential(ctx context.Context, userID int64, fn CredentialUpdater) (models.Credential, error)

	// LoadGrantGraph returns the user's grants plus every role, permission,
	// bank and account they reference.
	LoadGrantGraph(ctx context.Context, userID int64) (models.GrantGraph, error)

	// CreateUser persists the user, its credential and, when defaultRole names
	// an existing role, an unscoped active grant for it, all in one unit.
	CreateUser(ctx context.Context, user models.User, cred models.Credential, defaultRole string) (models.User, error)

	SetUserActive(ctx context.Context, id int64, active bool) error
	ListGuardianships(ctx context.Context, userID int64) ([]models.GuardianRelationship, error)
}
