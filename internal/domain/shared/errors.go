package shared

import "fmt"

// Domain error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeAlreadyExists = "ALREADY_EXISTS"
)

// DomainError is an error whose message is safe to return to API callers
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// InvalidInputf formats an INVALID_INPUT domain error
func InvalidInputf(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// ErrAlreadyExists is returned when a unique constraint rejects a write
var ErrAlreadyExists = NewDomainError(CodeAlreadyExists, "Resource already exists")
