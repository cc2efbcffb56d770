package auth

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies business failures surfaced to callers.
type ErrorKind string

const (
	KindAuthenticationFailure ErrorKind = "authentication_failure"
	KindAccountLocked         ErrorKind = "account_locked"
	KindValidationFailure     ErrorKind = "validation_failure"
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailExists        = "Email already exists"
	MsgDepartmentTooLong  = "Department name cannot exceed 100 characters."
	MsgLoginSuccessful    = "Login successful"
	MsgRegistered         = "Registration successful"
)

// Error is a recoverable login or registration failure. Infrastructure errors
// are never wrapped in Error.
type Error struct {
	Kind        ErrorKind
	Message     string
	LockedUntil *time.Time
}

func (e *Error) Error() string {
	return e.Message
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

func authenticationFailure() *Error {
	return &Error{Kind: KindAuthenticationFailure, Message: MsgInvalidCredentials}
}

func accountLocked(until time.Time) *Error {
	u := until.UTC()
	return &Error{
		Kind:        KindAccountLocked,
		Message:     fmt.Sprintf("Account is locked until %s", u.Format(time.RFC3339)),
		LockedUntil: &u,
	}
}

func validationFailure(message string) *Error {
	return &Error{Kind: KindValidationFailure, Message: message}
}
