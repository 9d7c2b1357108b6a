package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	"cloudvault/internal/domain/repositories"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	"cloudvault/internal/domain/services"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/storage"
	"cloudvault/internal/telemetry"
)

type fileService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	authorizer services.ResourceAuthorizer
	providers  ProviderSource
	purger     *purger
	emitter    telemetry.Emitter
	logger     *slog.Logger
}

// NewFileService creates the file side of the tree engine
func NewFileService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	providers ProviderSource,
	emitter telemetry.Emitter,
	logger *slog.Logger,
) driveSvc.FileService {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	return &fileService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		authorizer: authorizer,
		providers:  providers,
		purger: &purger{
			folderRepo: folderRepo,
			fileRepo:   fileRepo,
			txManager:  txManager,
			tree:       newTreeWalker(folderRepo, fileRepo, logger),
			providers:  providers,
			emitter:    emitter,
			logger:     logger,
		},
		emitter: emitter,
		logger:  logger,
	}
}

// UploadFile stores the bytes first, then records metadata. If the record
// cannot be written the stored bytes are deleted again.
func (s *fileService) UploadFile(ctx context.Context, req *driveSvc.UploadFileRequest) (file *models.File, err error) {
	start := time.Now()
	defer func() {
		event := telemetry.Event{Operation: telemetry.OpFileUpload, OwnerID: req.OwnerID}
		if file != nil {
			event.EntityIDs = []string{file.ID}
			event.Bytes = file.Size
			event.Provider = file.StorageProvider
		}
		telemetry.Record(ctx, s.emitter, event, start, err)
	}()

	if err := validateUpload(req); err != nil {
		return nil, err
	}

	folder, err := s.activeFolder(ctx, req.OwnerID, req.FolderID)
	if err != nil {
		return nil, fmt.Errorf("invalid folder: %w", err)
	}

	mimeType, content, err := resolveMimeType(req.MimeType, req.Content)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	provider := s.providers.Default()
	stored, err := provider.Upload(ctx, req.OriginalName, content, mimeType, req.OwnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	file = &models.File{
		ID:              uuid.NewString(),
		OwnerID:         req.OwnerID,
		FolderID:        folder.ID,
		Name:            storage.StoredName(stored.Key),
		OriginalName:    req.OriginalName,
		StorageKey:      stored.Key,
		StorageProvider: string(provider.Kind()),
		MimeType:        mimeType,
		Size:            stored.Size,
		Checksum:        stored.Checksum,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		if delErr := provider.Delete(ctx, stored.Key); delErr != nil {
			s.logger.Warn("failed to remove bytes of unrecorded upload",
				"key", stored.Key,
				"provider", provider.Kind(),
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"folder_id", file.FolderID,
		"owner_id", file.OwnerID,
		"size", file.Size,
		"mime_type", file.MimeType,
		"provider", file.StorageProvider,
	)

	return file, nil
}

// GetFile returns an active file's metadata
func (s *fileService) GetFile(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	file, err := s.authorizer.AuthorizeFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsTrashed() {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s is in the trash", fileID)}
	}
	return file, nil
}

// DownloadFile opens the bytes through the provider recorded on the file
func (s *fileService) DownloadFile(ctx context.Context, ownerID, fileID string) (file *models.File, rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() {
		event := telemetry.Event{Operation: telemetry.OpFileDownload, OwnerID: ownerID, EntityIDs: []string{fileID}}
		if file != nil {
			event.Provider = file.StorageProvider
			event.Bytes = file.Size
		}
		telemetry.Record(ctx, s.emitter, event, start, err)
	}()

	file, err = s.GetFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err = openStored(ctx, s.providers, file)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

// UpdateFile renames and/or moves a file
func (s *fileService) UpdateFile(ctx context.Context, ownerID, fileID string, req *driveSvc.UpdateFileRequest) (file *models.File, err error) {
	start := time.Now()
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{
			Operation: telemetry.OpFileRename,
			OwnerID:   ownerID,
			EntityIDs: []string{fileID},
		}, start, err)
	}()

	if err := validateUpdateFile(req); err != nil {
		return nil, err
	}

	file, err = s.GetFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	if req.OriginalName != nil {
		file.OriginalName = *req.OriginalName
	}
	if req.FolderID != nil && *req.FolderID != file.FolderID {
		target, err := s.activeFolder(ctx, ownerID, *req.FolderID)
		if err != nil {
			return nil, fmt.Errorf("invalid target folder: %w", err)
		}
		file.FolderID = target.ID
	}
	file.UpdatedAt = time.Now().UTC()

	if err := s.fileRepo.Update(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file updated", "id", file.ID, "name", file.OriginalName, "folder_id", file.FolderID)
	return file, nil
}

// SoftDeleteFile trashes a file. Trashing a trashed file is a no-op.
func (s *fileService) SoftDeleteFile(ctx context.Context, ownerID, fileID string) (err error) {
	start := time.Now()
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{
			Operation: telemetry.OpFileDelete,
			OwnerID:   ownerID,
			EntityIDs: []string{fileID},
		}, start, err)
	}()

	file, err := s.authorizer.AuthorizeFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if file.IsTrashed() {
		return nil
	}

	if err := s.fileRepo.MarkDeleted(ctx, []string{file.ID}, trashStamp()); err != nil {
		return fmt.Errorf("trash file %s: %w", fileID, err)
	}

	s.logger.Info("file trashed", "id", file.ID, "owner_id", ownerID)
	return nil
}

// RestoreFile restores a trashed file whose folder is active
func (s *fileService) RestoreFile(ctx context.Context, ownerID, fileID string) (file *models.File, err error) {
	start := time.Now()
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{
			Operation: telemetry.OpFileRestore,
			OwnerID:   ownerID,
			EntityIDs: []string{fileID},
		}, start, err)
	}()

	file, err = s.authorizer.AuthorizeFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if file.DeletedAt == nil {
		return file, nil
	}

	folder, err := s.folderRepo.GetByID(ctx, file.FolderID)
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if folder.IsTrashed() {
		return nil, &domain.ValidationError{Message: "restore the parent folder first"}
	}

	if err := s.fileRepo.ClearDeleted(ctx, []string{file.ID}, *file.DeletedAt); err != nil {
		return nil, fmt.Errorf("restore file %s: %w", fileID, err)
	}

	s.logger.Info("file restored", "id", file.ID, "owner_id", ownerID)
	return s.fileRepo.GetByID(ctx, file.ID)
}

// PermanentDeleteFile purges a trashed file and releases its bytes
func (s *fileService) PermanentDeleteFile(ctx context.Context, ownerID, fileID string) error {
	file, err := s.authorizer.AuthorizeFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if !file.IsTrashed() {
		return &domain.ValidationError{Message: "file must be in the trash before it can be permanently deleted"}
	}

	return s.purger.purgeFile(ctx, file)
}

func (s *fileService) activeFolder(ctx context.Context, ownerID, folderID string) (*models.Folder, error) {
	folder, err := s.authorizer.AuthorizeFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	if folder.IsTrashed() {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s is in the trash", folderID)}
	}
	return folder, nil
}

// openStored opens a file's bytes via the provider that wrote them, not the
// current default, so files survive a change of backend.
func openStored(ctx context.Context, providers ProviderSource, file *models.File) (io.ReadCloser, error) {
	provider, err := providers.Get(ctx, file.StorageProvider)
	if err != nil {
		return nil, fmt.Errorf("storage provider for file %s: %w", file.ID, err)
	}

	rc, err := provider.Download(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("content of file %s is missing", file.ID)}
		}
		return nil, err
	}
	return rc, nil
}
