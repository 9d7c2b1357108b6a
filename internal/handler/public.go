package handler

import (
	"log/slog"
	"net/http"

	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/httputil"
)

// PublicHandler serves share links without authentication. The gateway
// already folds every reachability failure into one NotFound.
type PublicHandler struct {
	gateway driveSvc.PublicGateway
	logger  *slog.Logger
}

// NewPublicHandler creates a new public share handler
func NewPublicHandler(gateway driveSvc.PublicGateway, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// GetShare lists the share root (or describes the shared file)
// GET /api/public/{token}
func (h *PublicHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	listing, err := h.gateway.ListShared(r.Context(), r.PathValue("token"), nil)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// ListFolder lists a folder inside a shared folder
// GET /api/public/{token}/folders/{folderId}
func (h *PublicHandler) ListFolder(w http.ResponseWriter, r *http.Request) {
	folderID := r.PathValue("folderId")

	listing, err := h.gateway.ListShared(r.Context(), r.PathValue("token"), &folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// DownloadShared streams a directly shared file
// GET /api/public/{token}/download
func (h *PublicHandler) DownloadShared(w http.ResponseWriter, r *http.Request) {
	file, content, err := h.gateway.DownloadShared(r.Context(), r.PathValue("token"), nil)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	streamFile(w, h.logger, file, content)
}

// DownloadFromFolder streams a file reached through a shared folder
// GET /api/public/{token}/files/{fileId}/download
func (h *PublicHandler) DownloadFromFolder(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("fileId")

	file, content, err := h.gateway.DownloadShared(r.Context(), r.PathValue("token"), &fileID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	streamFile(w, h.logger, file, content)
}
