package handler

import (
	"log/slog"
	"net/http"

	"cloudvault/internal/domain/models/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/httputil"
)

// TrashHandler serves the trash and name search
type TrashHandler struct {
	trashService  driveSvc.TrashService
	searchService driveSvc.SearchService
	logger        *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(trashService driveSvc.TrashService, searchService driveSvc.SearchService, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{
		trashService:  trashService,
		searchService: searchService,
		logger:        logger,
	}
}

// ListTrash lists entities the caller trashed directly
// GET /api/trash
func (h *TrashHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	listing, err := h.trashService.ListTrash(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// EmptyTrash purges every trash root
// DELETE /api/trash
func (h *TrashHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	ownerID := httputil.GetUserID(r)

	purged, err := h.trashService.EmptyTrash(r.Context(), ownerID)
	if err != nil {
		h.logger.Warn("empty trash stopped early", "owner_id", ownerID, "purged", purged, "error", err)
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"purged": purged})
}

// Search finds active folders and files by name
// GET /api/search?q=...&limit=...
func (h *TrashHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.searchService.Search(r.Context(), &drive.SearchOptions{
		OwnerID: httputil.GetUserID(r),
		Query:   r.URL.Query().Get("q"),
		Limit:   limit,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
