package services

import (
	"errors"
	"fmt"
)

// ErrorKind groups service errors by how the boundary should report them.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindAuthentication    ErrorKind = "authentication"
	KindAuthorization     ErrorKind = "authorization"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindConflict          ErrorKind = "conflict"
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same Code, so a sentinel matches its
// detailed variants created through WithMessage.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrValidation             = &Error{KindValidation, "VALIDATION_FAILED", "validation failed"}
	ErrInvalidCredentials     = &Error{KindAuthentication, "INVALID_CREDENTIALS", "invalid email or password"}
	ErrTokenExpired           = &Error{KindAuthentication, "TOKEN_EXPIRED", "token expired"}
	ErrTokenInvalid           = &Error{KindAuthentication, "TOKEN_INVALID", "token invalid"}
	ErrNoOrganizationSelected = &Error{KindAuthorization, "NO_ORGANIZATION_SELECTED", "no organization selected"}
	ErrNotAMember             = &Error{KindAuthorization, "NOT_A_MEMBER", "not an active member of this organization"}
	ErrForbiddenRole          = &Error{KindAuthorization, "FORBIDDEN_ROLE", "role not permitted for this action"}
	ErrNotAssignedCoach       = &Error{KindAuthorization, "NOT_ASSIGNED_COACH", "only the assigned coach may do this"}
	ErrAlreadyMember          = &Error{KindConflict, "ALREADY_MEMBER", "user is already a member of this organization"}
	ErrDuplicateInvoiceNumber = &Error{KindConflict, "DUPLICATE_INVOICE_NUMBER", "invoice number already exists"}
	ErrEmailTaken             = &Error{KindConflict, "EMAIL_TAKEN", "email already registered"}
	ErrInvalidTransition      = &Error{KindInvalidTransition, "INVALID_TRANSITION", "invalid status transition"}
	ErrAlreadyProcessed       = &Error{KindInvalidTransition, "ALREADY_PROCESSED", "invoice already paid"}
	ErrSessionNotFound        = &Error{KindNotFound, "SESSION_NOT_FOUND", "session not found"}
	ErrGoalNotFound           = &Error{KindNotFound, "GOAL_NOT_FOUND", "goal not found"}
	ErrInvoiceNotFound        = &Error{KindNotFound, "INVOICE_NOT_FOUND", "invoice not found"}
	ErrUserNotFound           = &Error{KindNotFound, "USER_NOT_FOUND", "user not found"}
	ErrOrganizationNotFound   = &Error{KindNotFound, "ORGANIZATION_NOT_FOUND", "organization not found"}
)

func validationError(format string, args ...interface{}) *Error {
	return ErrValidation.WithMessage(format, args...)
}
