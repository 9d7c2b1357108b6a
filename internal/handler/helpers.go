package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"cloudvault/internal/domain"
	"cloudvault/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case errors.Is(err, domain.ErrStorageBackend):
		logger.Warn("storage backend failure", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "storage backend unavailable")
	case errors.Is(err, domain.ErrCorruption):
		logger.Error("folder tree corruption", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandleCreateConflict handles conflicts during creation by returning the existing resource with 409
// If the error is a ConflictError, it calls fetchFn to retrieve the existing resource
func HandleCreateConflict[T any](w http.ResponseWriter, logger *slog.Logger, err error, fetchFn func(conflict *domain.ConflictError) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		existing, fetchErr := fetchFn(conflictErr)
		if fetchErr != nil {
			handleError(w, logger, fetchErr)
			return
		}

		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	handleError(w, logger, err)
}
