package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// PermissionDeniedError distinguishes a missing/inactive account from a role
// that lacks the required module action.
type PermissionDeniedError struct {
	AccountProblem bool
	Message        string
}

func (e *PermissionDeniedError) Error() string { return e.Message }

func ErrAccountNotUsable(msg string) error {
	return &PermissionDeniedError{AccountProblem: true, Message: msg}
}

func ErrMissingPermission(msg string) error {
	return &PermissionDeniedError{Message: msg}
}

// PhaseConflictError is returned when an operation falls outside its allowed
// lifecycle window (e.g. un-completing planning after execution started).
type PhaseConflictError struct {
	Message string
}

func (e *PhaseConflictError) Error() string { return e.Message }

func ErrPhaseConflict(format string, args ...any) error {
	return &PhaseConflictError{Message: fmt.Sprintf(format, args...)}
}

// AssociationConflictError is returned when a detach would orphan downstream
// rows (tests/findings still consuming the association).
type AssociationConflictError struct {
	Message string
}

func (e *AssociationConflictError) Error() string { return e.Message }

func ErrAssociationConflict(format string, args ...any) error {
	return &AssociationConflictError{Message: fmt.Sprintf(format, args...)}
}

// UniquenessConflictError is returned on slug/name collisions within a fiscal
// year, including collisions against soft-deleted rows.
type UniquenessConflictError struct {
	EntityType string
	Value      string
}

func (e *UniquenessConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.EntityType, e.Value)
}

// ValidationError carries one or more input problems detected before any
// persistence access.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid input"
	}
	return e.Messages[0]
}

func ErrValidation(messages ...string) error {
	return &ValidationError{Messages: messages}
}

// IsDuplicateKey reports whether err is a MySQL duplicate-entry error (1062),
// so racing inserts still surface as a uniqueness conflict.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
