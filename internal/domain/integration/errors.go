package integration

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	// Credential and configuration errors (detected before any network call)
	ErrCredential    = errors.New("integration: missing or invalid store credentials")
	ErrConfiguration = errors.New("integration: store configuration incomplete for this operation")

	// Connection lifecycle errors
	ErrBackendMisconfigured = errors.New("integration: storage backend rejected its service credentials")
	ErrConnect              = errors.New("integration: failed to connect store")
	ErrDisconnect           = errors.New("integration: failed to disconnect store")

	// Remote catalog errors
	ErrRemoteFetch      = errors.New("integration: remote catalog fetch failed")
	ErrProxyUnavailable = errors.New("integration: catalog proxy unreachable")
	ErrProxyRejected    = errors.New("integration: catalog proxy rejected request")

	// Platform request errors
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")

	// Import and publish errors
	ErrPartialImport     = errors.New("integration: some selected products failed to import")
	ErrPublish           = errors.New("integration: order publish failed")
	ErrPublishInProgress = errors.New("integration: order publish already in progress")

	// Sync errors
	ErrSyncInProgress = errors.New("integration: a sync is already running for this store")

	// Not found errors
	ErrStoreNotFound   = errors.New("integration: store not found")
	ErrProductNotFound = errors.New("integration: product not found")
	ErrOrderNotFound   = errors.New("integration: order not found")
	ErrSyncLogNotFound = errors.New("integration: sync log not found")

	// Validation errors
	ErrInvalidStoreType  = errors.New("integration: invalid store type")
	ErrInvalidSyncType   = errors.New("integration: invalid sync type")
	ErrInvalidBrandID    = errors.New("integration: invalid brand ID")
	ErrInvalidStoreID    = errors.New("integration: invalid store ID")
	ErrStoreSelectorNone = errors.New("integration: store ID or brand ID is required")
)

// ---------------------------------------------------------------------------
// RemoteFetchError
// ---------------------------------------------------------------------------

// AttemptError is the failure of one fallback ladder attempt.
type AttemptError struct {
	Attempt string
	Err     error
}

// Error implements the error interface
func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Attempt, e.Err)
}

// Unwrap returns the underlying attempt failure
func (e AttemptError) Unwrap() error {
	return e.Err
}

// RemoteFetchError is returned when every attempt of the fallback ladder failed.
// It keeps the last error observed per attempt, in ladder order.
type RemoteFetchError struct {
	Attempts []AttemptError
}

// Error implements the error interface
func (e *RemoteFetchError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrRemoteFetch.Error() + ": no attempt applicable"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return ErrRemoteFetch.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrRemoteFetch
func (e *RemoteFetchError) Is(target error) bool {
	return target == ErrRemoteFetch
}

// Unwrap exposes the per-attempt errors to errors.Is/As
func (e *RemoteFetchError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// ---------------------------------------------------------------------------
// PartialImportError
// ---------------------------------------------------------------------------

// ItemError records why a single selected product could not be imported.
type ItemError struct {
	ExternalProductID string `json:"external_product_id"`
	Title             string `json:"title"`
	Message           string `json:"message"`
}

// PartialImportError reports the per-item failures of an import batch.
type PartialImportError struct {
	Attempted int
	Inserted  int
	Items     []ItemError
}

// Error implements the error interface
func (e *PartialImportError) Error() string {
	return fmt.Sprintf("%s: %d of %d failed", ErrPartialImport.Error(), len(e.Items), e.Attempted)
}

// Is reports whether target is ErrPartialImport
func (e *PartialImportError) Is(target error) bool {
	return target == ErrPartialImport
}
