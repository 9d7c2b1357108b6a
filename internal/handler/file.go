package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"cloudvault/internal/config"
	"cloudvault/internal/domain/models/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/httputil"
)

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService    driveSvc.FileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewFileHandler creates a new file handler. maxUploadBytes caps the whole
// multipart body of an upload.
func NewFileHandler(fileService driveSvc.FileService, maxUploadBytes int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type updateFileBody struct {
	Name     *string `json:"name"`
	FolderID *string `json:"folder_id"`
}

// UploadFile stores one file from a multipart form
// POST /api/files
//
// Form fields:
//   - folder_id: required, target folder
//   - file: required, the file part; its Content-Type is used unless empty or generic
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(config.MultipartMemoryBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the maximum size")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer func() { _ = part.Close() }()

	ownerID := httputil.GetUserID(r)
	file, err := h.fileService.UploadFile(r.Context(), &driveSvc.UploadFileRequest{
		OwnerID:      ownerID,
		FolderID:     r.FormValue("folder_id"),
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Content:      part,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.logger.Info("file uploaded",
		"file_id", file.ID,
		"folder_id", file.FolderID,
		"size", file.Size,
		"provider", file.StorageProvider,
	)

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetFile returns a file's metadata
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.GetFile(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DownloadFile streams a file's bytes
// GET /api/files/{id}/download
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	file, content, err := h.fileService.DownloadFile(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	streamFile(w, h.logger, file, content)
}

// UpdateFile renames and/or moves a file
// PATCH /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	var body updateFileBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	file, err := h.fileService.UpdateFile(r.Context(), httputil.GetUserID(r), r.PathValue("id"), &driveSvc.UpdateFileRequest{
		OriginalName: body.Name,
		FolderID:     body.FolderID,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DeleteFile moves a file to the trash
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.fileService.SoftDeleteFile(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// RestoreFile brings a trashed file back
// POST /api/files/{id}/restore
func (h *FileHandler) RestoreFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.RestoreFile(r.Context(), httputil.GetUserID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// PurgeFile permanently deletes a trashed file and its stored bytes
// DELETE /api/files/{id}/permanent
func (h *FileHandler) PurgeFile(w http.ResponseWriter, r *http.Request) {
	if err := h.fileService.PermanentDeleteFile(r.Context(), httputil.GetUserID(r), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// streamFile writes file headers then copies content. Once the first byte is
// out the status is committed, so a mid-stream failure can only be logged and
// the connection cut short.
func streamFile(w http.ResponseWriter, logger *slog.Logger, file *drive.File, content io.ReadCloser) {
	defer func() { _ = content.Close() }()

	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		logger.Warn("download interrupted", "file_id", file.ID, "error", err)
	}
}
