package handler

import (
	"log/slog"
	"net/http"

	"cloudvault/internal/domain/models/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/httputil"
)

// ShareHandler issues and revokes share links on the owner's side
type ShareHandler struct {
	shareService driveSvc.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService driveSvc.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// Share returns a handler issuing (or returning the existing) token for kind
// POST /api/folders/{id}/share, POST /api/files/{id}/share
func (h *ShareHandler) Share(kind drive.ShareKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := h.shareService.Share(r.Context(), httputil.GetUserID(r), kind, r.PathValue("id"))
		if err != nil {
			handleError(w, h.logger, err)
			return
		}

		httputil.RespondJSON(w, http.StatusOK, link)
	}
}

// Unshare returns a handler revoking the token for kind
// DELETE /api/folders/{id}/share, DELETE /api/files/{id}/share
func (h *ShareHandler) Unshare(kind drive.ShareKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.shareService.Unshare(r.Context(), httputil.GetUserID(r), kind, r.PathValue("id")); err != nil {
			handleError(w, h.logger, err)
			return
		}

		httputil.RespondNoContent(w)
	}
}
