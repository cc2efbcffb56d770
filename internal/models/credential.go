package models

import "time"

// Credential stores password verification material and lockout state for a
// single user.
type Credential struct {
	ID                  int64
	UserID              int64
	PasswordHash        string
	PasswordKey         string
	FailedLoginAttempts int
	IsLocked            bool
	LockedUntil         *time.Time
	LastPasswordChange  *time.Time
	CreatedAt           time.Time
}
