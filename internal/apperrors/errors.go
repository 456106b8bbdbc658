package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf reports the kind of the first *Error in the chain, KindInternal
// when the error does not carry one.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	ErrAssignmentNotFound = NotFound("assignment not found")
	ErrTeacherNotFound    = NotFound("teacher not found")
	ErrNotAssigned        = Authorization("teacher is not assigned to this assignment")
	ErrSubmissionClosed   = Conflict("submission window is closed")
	ErrCompletionClosed   = Conflict("close date has passed")
	ErrAlreadyCompleted   = Conflict("assignment is already completed")
	ErrNotOnAssignment    = Conflict("teacher is not on the general assignment")
	ErrNotGeneral         = Conflict("assignment is not a general assignment")
	ErrVersionConflict    = Conflict("assignment was modified concurrently")
)
