package auth

import (
	"time"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

const (
	DefaultMaxFailedAttempts = 5
	DefaultLockDuration      = 30 * time.Minute
)

// LockoutPolicy decides when repeated password failures lock a credential.
//
// An expired lock does not reset the failure counter. The password is checked
// again, and a further failure re-locks straight away because the counter is
// already at the limit.
type LockoutPolicy struct {
	MaxFailures  int
	LockDuration time.Duration
}

// NewLockoutPolicy returns a policy, substituting defaults for non-positive values.
func NewLockoutPolicy(maxFailures int, lockDuration time.Duration) LockoutPolicy {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailedAttempts
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	return LockoutPolicy{MaxFailures: maxFailures, LockDuration: lockDuration}
}

// Locked reports whether the credential is locked at now and, if so, until when.
func (p LockoutPolicy) Locked(cred models.Credential, now time.Time) (time.Time, bool) {
	if !cred.IsLocked || cred.LockedUntil == nil {
		return time.Time{}, false
	}
	if now.Before(*cred.LockedUntil) {
		return *cred.LockedUntil, true
	}
	return time.Time{}, false
}

// RecordFailure counts a failed verification and locks once the limit is reached.
// It reports whether this failure locked the credential.
func (p LockoutPolicy) RecordFailure(cred *models.Credential, now time.Time) bool {
	cred.FailedLoginAttempts++
	if cred.FailedLoginAttempts >= p.MaxFailures {
		until := now.Add(p.LockDuration)
		cred.IsLocked = true
		cred.LockedUntil = &until
		return true
	}
	return false
}

// RecordSuccess clears the counter and any lock.
func (p LockoutPolicy) RecordSuccess(cred *models.Credential) {
	cred.FailedLoginAttempts = 0
	cred.IsLocked = false
	cred.LockedUntil = nil
}
