// Package apperr defines the error-kind taxonomy shared by the store,
// provider and batch packages: sentinel errors, coarse kinds, and the
// wrapper types that carry them.
package apperr

import "errors"

// Sentinel errors for conditions the core operations can hit directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrProviderTimeout   = errors.New("provider timeout")
	ErrProviderProtocol  = errors.New("provider protocol error")
	ErrProviderUnavail   = errors.New("provider unavailable")
	ErrStorage           = errors.New("storage error")
	ErrCancelled         = errors.New("cancelled")
	ErrAlreadyRunning    = errors.New("already running")
	ErrNotRunning        = errors.New("is running")
)

// Kind is the coarse classification used for logging and propagation
// decisions; it does not replace Go's error wrapping, it augments it.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindProviderTimeout    Kind = "provider_timeout"
	KindProviderProtocol   Kind = "provider_protocol"
	KindProviderUnavail    Kind = "provider_unavailable"
	KindStorage            Kind = "storage"
	KindCancelled          Kind = "cancelled"
)

// StoreError wraps a storage-layer failure with the operation that
// produced it, mirroring how workflow/execution errors carry their own
// identifiers in this codebase's error types.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ProviderError wraps a provider-layer failure with its Kind so callers
// can tell a timeout from a protocol error without string matching.
type ProviderError struct {
	Kind Kind
	Err  error
}

func (e *ProviderError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
