package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError. The type alone picks the HTTP status.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeTimeout      ErrorType = "TIMEOUT"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeDatabase     ErrorType = "DATABASE"
	ErrorTypeExternal     ErrorType = "EXTERNAL"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeTimeout:      http.StatusGatewayTimeout,
	ErrorTypeDatabase:     http.StatusInternalServerError,
	ErrorTypeExternal:     http.StatusBadGateway,
}

// Status is the HTTP status answered for errors of type t
func (t ErrorType) Status() int {
	if status, ok := statusByType[t]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Codes clients can branch on
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeMissingSession     = "MISSING_SESSION"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeIdentityProvider   = "IDENTITY_PROVIDER_ERROR"
	CodeCompletionFailed   = "COMPLETION_FAILED"
	CodeDraftNotFound      = "DRAFT_NOT_FOUND"
	CodeTemplateNotFound   = "TEMPLATE_NOT_FOUND"
	CodeStorageFailure     = "STORAGE_FAILURE"
	CodeLayoutTimeout      = "LAYOUT_TIMEOUT"
)

// AppError is an error a handler can answer without guessing: a type for
// the status, a message safe to show and an optional machine code.
type AppError struct {
	Type    ErrorType
	Message string
	Code    string
	Details map[string]interface{}
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Type) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode sets the machine-readable code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches extra response fields
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error. It is logged, never shown.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newError(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message}
}

func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message).WithCode(CodeInvalidRequest)
}

func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, resource+" not found")
}

func NewUnauthorizedError(message string) *AppError {
	return newError(ErrorTypeUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	return newError(ErrorTypeForbidden, message)
}

func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, message)
}

// NewTimeoutError reports an operation that did not finish before the
// request ended
func NewTimeoutError(operation string) *AppError {
	return newError(ErrorTypeTimeout, operation+" did not finish in time")
}

// NewDatabaseError reports a failed store operation
func NewDatabaseError(operation string, err error) *AppError {
	return newError(ErrorTypeDatabase, operation+" failed").WithCause(err).WithCode(CodeStorageFailure)
}

// NewExternalError reports a failing upstream service
func NewExternalError(service string, err error) *AppError {
	return newError(ErrorTypeExternal, service+" request failed").WithCause(err)
}

// GetAppError returns the first AppError in err's chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err's chain holds an AppError of type t
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}
