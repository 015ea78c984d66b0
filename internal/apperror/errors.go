package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for transport-level mapping.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindAssistantUnavailable
)

// AppError is the error type produced by the service and repository layers.
// Transport layers (REST controllers, the WebSocket gateway) translate it
// into status codes or scoped Error events without inspecting messages.
type AppError struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewForbidden(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewAssistantUnavailable wraps a failure from the generation collaborator.
func NewAssistantUnavailable(cause error) *AppError {
	return &AppError{Kind: KindAssistantUnavailable, Message: "assistant is unavailable", Err: cause}
}

func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsForbidden(err error) bool  { return IsKind(err, KindForbidden) }
func IsConflict(err error) bool   { return IsKind(err, KindConflict) }

func IsAssistantUnavailable(err error) bool { return IsKind(err, KindAssistantUnavailable) }
