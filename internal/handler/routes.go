package handler

import (
	"net/http"

	"cloudvault/internal/domain/models/drive"
)

// Handlers groups every handler the router needs.
type Handlers struct {
	Folders *FolderHandler
	Files   *FileHandler
	Shares  *ShareHandler
	Trash   *TrashHandler
	Public  *PublicHandler
}

// RegisterRoutes mounts the API on mux (Go 1.22+ method and wildcard patterns).
// Authentication is applied outside the mux; /health and /api/public/ stay open.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /health", HealthCheck)

	// Folder routes
	mux.HandleFunc("GET /api/folders", h.Folders.ListRootFolders)
	mux.HandleFunc("POST /api/folders", h.Folders.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", h.Folders.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", h.Folders.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", h.Folders.DeleteFolder)
	mux.HandleFunc("POST /api/folders/{id}/restore", h.Folders.RestoreFolder)
	mux.HandleFunc("DELETE /api/folders/{id}/permanent", h.Folders.PurgeFolder)
	mux.HandleFunc("POST /api/folders/{id}/share", h.Shares.Share(drive.ShareKindFolder))
	mux.HandleFunc("DELETE /api/folders/{id}/share", h.Shares.Unshare(drive.ShareKindFolder))

	// File routes
	mux.HandleFunc("POST /api/files", h.Files.UploadFile)
	mux.HandleFunc("GET /api/files/{id}", h.Files.GetFile)
	mux.HandleFunc("GET /api/files/{id}/download", h.Files.DownloadFile)
	mux.HandleFunc("PATCH /api/files/{id}", h.Files.UpdateFile)
	mux.HandleFunc("DELETE /api/files/{id}", h.Files.DeleteFile)
	mux.HandleFunc("POST /api/files/{id}/restore", h.Files.RestoreFile)
	mux.HandleFunc("DELETE /api/files/{id}/permanent", h.Files.PurgeFile)
	mux.HandleFunc("POST /api/files/{id}/share", h.Shares.Share(drive.ShareKindFile))
	mux.HandleFunc("DELETE /api/files/{id}/share", h.Shares.Unshare(drive.ShareKindFile))

	// Trash and search
	mux.HandleFunc("GET /api/trash", h.Trash.ListTrash)
	mux.HandleFunc("DELETE /api/trash", h.Trash.EmptyTrash)
	mux.HandleFunc("GET /api/search", h.Trash.Search)

	// Public share links
	mux.HandleFunc("GET /api/public/{token}", h.Public.GetShare)
	mux.HandleFunc("GET /api/public/{token}/folders/{folderId}", h.Public.ListFolder)
	mux.HandleFunc("GET /api/public/{token}/download", h.Public.DownloadShared)
	mux.HandleFunc("GET /api/public/{token}/files/{fileId}/download", h.Public.DownloadFromFolder)
}
