package dto

import (
	"errors"
	"net/http"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBackendMisconfigured hides storage credential failures from callers
	ErrCodeBackendMisconfigured = "ERR_BACKEND_MISCONFIGURED"
)

// Input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeCredential   = "ERR_CREDENTIAL"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"
)

// Integration error codes
const (
	ErrCodeConfiguration     = "ERR_CONFIGURATION"
	ErrCodeSyncInProgress    = "ERR_SYNC_IN_PROGRESS"
	ErrCodePublishInProgress = "ERR_PUBLISH_IN_PROGRESS"
	ErrCodeConnect           = "ERR_CONNECT"
	ErrCodeDisconnect        = "ERR_DISCONNECT"
	ErrCodePublish           = "ERR_PUBLISH"
	ErrCodeRemoteFetch       = "ERR_REMOTE_FETCH"
	ErrCodeProxyRejected     = "ERR_PROXY_REJECTED"
	ErrCodeUpstreamDown      = "ERR_UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamRequest   = "ERR_UPSTREAM_REQUEST"
	ErrCodePartialImport     = "ERR_PARTIAL_IMPORT"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:             http.StatusInternalServerError,
	ErrCodeBackendMisconfigured: http.StatusServiceUnavailable,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeCredential:   http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,

	ErrCodeConfiguration:     http.StatusUnprocessableEntity,
	ErrCodeSyncInProgress:    http.StatusConflict,
	ErrCodePublishInProgress: http.StatusConflict,
	ErrCodeConnect:           http.StatusInternalServerError,
	ErrCodeDisconnect:        http.StatusInternalServerError,
	ErrCodePublish:           http.StatusBadGateway,
	ErrCodeRemoteFetch:       http.StatusBadGateway,
	ErrCodeProxyRejected:     http.StatusBadGateway,
	ErrCodeUpstreamDown:      http.StatusServiceUnavailable,
	ErrCodeUpstreamRequest:   http.StatusBadGateway,
	ErrCodePartialImport:     http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps shared.DomainError codes to API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":   ErrCodeAlreadyExists,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_STATE":    ErrCodeInvalidState,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

// errorRule maps a sentinel to an API code. Rules are checked in order, so a sentinel that
// is usually wrapped by another (ErrOrderNotFound inside ErrPublish) must come first.
type errorRule struct {
	target error
	code   string
	// message replaces the error text when set
	message string
}

var errorRules = []errorRule{
	{target: integration.ErrBackendMisconfigured, code: ErrCodeBackendMisconfigured, message: "Store backend is misconfigured"},
	{target: integration.ErrInvalidBrandID, code: ErrCodeInvalidInput},
	{target: integration.ErrInvalidStoreID, code: ErrCodeInvalidInput},
	{target: integration.ErrInvalidStoreType, code: ErrCodeInvalidInput},
	{target: integration.ErrInvalidSyncType, code: ErrCodeInvalidInput},
	{target: integration.ErrStoreSelectorNone, code: ErrCodeInvalidInput},
	{target: integration.ErrCredential, code: ErrCodeCredential},
	{target: integration.ErrStoreNotFound, code: ErrCodeNotFound},
	{target: integration.ErrProductNotFound, code: ErrCodeNotFound},
	{target: integration.ErrOrderNotFound, code: ErrCodeNotFound},
	{target: integration.ErrSyncLogNotFound, code: ErrCodeNotFound},
	{target: integration.ErrSyncInProgress, code: ErrCodeSyncInProgress},
	{target: integration.ErrPublishInProgress, code: ErrCodePublishInProgress},
	{target: integration.ErrConfiguration, code: ErrCodeConfiguration},
	{target: integration.ErrPartialImport, code: ErrCodePartialImport},
	{target: integration.ErrProxyRejected, code: ErrCodeProxyRejected},
	{target: integration.ErrRemoteFetch, code: ErrCodeRemoteFetch},
	{target: integration.ErrProxyUnavailable, code: ErrCodeUpstreamDown},
	{target: integration.ErrPlatformUnavailable, code: ErrCodeUpstreamDown},
	{target: integration.ErrPlatformRequestFailed, code: ErrCodeUpstreamRequest},
	{target: integration.ErrPlatformInvalidResponse, code: ErrCodeUpstreamRequest},
	{target: integration.ErrPublish, code: ErrCodePublish},
	{target: integration.ErrConnect, code: ErrCodeConnect},
	{target: integration.ErrDisconnect, code: ErrCodeDisconnect},
}

// ResolveError maps an application error to its HTTP status, API code and client message.
// Unknown errors resolve to a generic internal error so storage details never leak.
func ResolveError(err error) (status int, code, message string) {
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			message = rule.message
			if message == "" {
				message = err.Error()
			}
			return GetHTTPStatus(rule.code), rule.code, message
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = NormalizeErrorCode(domainErr.Code)
		return GetHTTPStatus(code), code, domainErr.Message
	}

	return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
}
