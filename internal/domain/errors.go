package domain

import (
	"errors"
	"net/http"
)

// HTTPStatusError defines errors that carry the HTTP status code they were
// mapped from. Implementing this interface keeps status handling extensible.
type HTTPStatusError interface {
	error
	StatusCode() int
}

// Error types for the failure taxonomy: transport failures, rejected input,
// stale ids, and server-side faults.
type (
	// NotFoundError indicates a stale id referencing a deleted resource
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (client-side or 4xx)
	ValidationError struct {
		Message string
	}

	// NetworkError indicates the request never reached the server or no
	// response arrived
	NetworkError struct {
		Message string
		Cause   error
	}

	// ServerError indicates a 5xx response
	ServerError struct {
		Message string
		Status  int
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *NetworkError) Error() string    { return e.Message }
func (e *ServerError) Error() string     { return e.Message }

func (e *NetworkError) Unwrap() error { return e.Cause }

// StatusCode implementations (HTTPStatusError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *ServerError) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrNetwork    = errors.New("network failure")
	ErrServer     = errors.New("server failure")

	// ErrUnsavedEdits rejects an operation that would snapshot or discard a
	// dirty edit buffer without the caller saving or confirming first.
	ErrUnsavedEdits = errors.New("unsaved edits")

	// ErrSaveInFlight rejects a save issued while another save for the same
	// chapter is still outstanding.
	ErrSaveInFlight = errors.New("save already in flight")

	// ErrConfirmationRequired marks destructive operations that need an
	// explicit confirmation token before they run.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrNoChapter rejects chapter-scoped operations while nothing is loaded.
	ErrNoChapter = errors.New("no chapter loaded")
)

// Is implementations let errors.Is() match typed errors against sentinels.
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *NetworkError) Is(target error) bool    { return target == ErrNetwork }
func (e *ServerError) Is(target error) bool     { return target == ErrServer }
