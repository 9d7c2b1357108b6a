package handler

import (
	"log/slog"
	"net/http"

	"cloudvault/internal/domain"
	"cloudvault/internal/domain/models/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService driveSvc.FolderService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService driveSvc.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// updateFolderBody is the PATCH body. parent_id distinguishes absent
// (don't move) from null (move to root).
type updateFolderBody struct {
	Name     *string                 `json:"name"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// ListRootFolders lists the caller's top-level folders
// GET /api/folders
func (h *FolderHandler) ListRootFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folderService.ListRootFolders(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// CreateFolder creates a new folder
// POST /api/folders
// Returns 201 if created, 409 with the existing sibling if the name is taken
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req driveSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, h.logger, err, func(conflict *domain.ConflictError) (*drive.Folder, error) {
			detail, err := h.folderService.GetFolderDetail(r.Context(), req.OwnerID, conflict.ResourceID)
			if err != nil {
				return nil, err
			}
			return detail.Folder, nil
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetFolder returns a folder with its children and breadcrumb
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.folderService.GetFolderDetail(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, detail)
}

// UpdateFolder renames and/or moves a folder
// PATCH /api/folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var body updateFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := &driveSvc.UpdateFolderRequest{
		Name: body.Name,
		ParentID: driveSvc.OptionalParent{
			Present: body.ParentID.Present,
			Value:   body.ParentID.Value,
		},
	}

	folder, err := h.folderService.UpdateFolder(r.Context(), httputil.GetUserID(r), r.PathValue("id"), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder moves a folder and its subtree to the trash
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.folderService.SoftDeleteFolder(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// RestoreFolder brings a trashed folder back with everything its delete swept up
// POST /api/folders/{id}/restore
func (h *FolderHandler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.folderService.RestoreFolder(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// PurgeFolder permanently deletes a trashed folder and its subtree
// DELETE /api/folders/{id}/permanent
func (h *FolderHandler) PurgeFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.folderService.PermanentDeleteFolder(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}
