package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates an entity or storage key is absent
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates an ownership mismatch
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Is implementations so typed errors match their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrStorageBackend = errors.New("storage backend error")
	ErrCorruption     = errors.New("structural corruption")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (folder, file)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StorageError wraps an I/O failure reported by a storage provider.
// Backend-specific error shapes never escape the storage package; they are
// flattened into this type (or into ErrNotFound for missing keys).
type StorageError struct {
	Op       string // upload, download, delete, exists
	Provider string // provider tag
	Key      string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s (%s): %v", e.Op, e.Key, e.Provider, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) StatusCode() int { return http.StatusBadGateway }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageBackend
}

// CorruptionError reports a cycle or broken parent chain found while walking the tree.
// It must never occur under correct operation and is kept distinct from
// NotFound so it can be alerted on.
type CorruptionError struct {
	EntityID string
	Reason   string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("structural corruption at %s: %s", e.EntityID, e.Reason)
}

func (e *CorruptionError) StatusCode() int { return http.StatusInternalServerError }

func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorruption
}
