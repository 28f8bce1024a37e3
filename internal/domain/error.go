package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrOperationFailed    = errors.New("database operation failed")

	// Barcode allocation
	ErrNoActiveCampaign = errors.New("no active campaign")
	ErrPoolExhausted    = errors.New("no unassigned barcode left in campaign pool")
	ErrAlreadyAssigned  = errors.New("user already has a barcode")
	ErrBarcodeBound     = errors.New("barcode is bound to a user")

	// Accounts
	ErrInvalidCredentials  = errors.New("invalid phone number or password")
	ErrInactiveAccount     = errors.New("account is not active")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrWrongPassword       = errors.New("current password is wrong")
	ErrDuplicateChild      = errors.New("a child with this name already exists")
	ErrTooManyAttempts     = errors.New("too many attempts, try again later")
	ErrInvalidVerification = errors.New("invalid verification code")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrTokenRevoked        = errors.New("token has been revoked")

	// Coordination
	ErrLockBusy = errors.New("another operation holds the lock")
)

// IsNoAssignment reports whether err is one of the expected "nothing to hand out"
// outcomes of barcode allocation.
func IsNoAssignment(err error) bool {
	return errors.Is(err, ErrNoActiveCampaign) || errors.Is(err, ErrPoolExhausted)
}

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil returns nil when no field failed so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }
