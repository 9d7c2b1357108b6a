package drive

import (
	"context"
	"fmt"
	"log/slog"

	models "cloudvault/internal/domain/models/drive"
	"cloudvault/internal/domain/repositories"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/telemetry"
)

type trashService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	purger     *purger
	logger     *slog.Logger
}

// NewTrashService creates the owner's trash view
func NewTrashService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	txManager repositories.TransactionManager,
	providers ProviderSource,
	emitter telemetry.Emitter,
	logger *slog.Logger,
) driveSvc.TrashService {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	return &trashService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		purger: &purger{
			folderRepo: folderRepo,
			fileRepo:   fileRepo,
			txManager:  txManager,
			tree:       newTreeWalker(folderRepo, fileRepo, logger),
			providers:  providers,
			emitter:    emitter,
			logger:     logger,
		},
		logger: logger,
	}
}

// ListTrash returns trashed folders whose parent is active (or absent) and
// trashed files whose folder is active. Everything else in the trash sits
// below one of these and comes back with it.
func (s *trashService) ListTrash(ctx context.Context, ownerID string) (*models.TrashListing, error) {
	folders, err := s.folderRepo.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed folders: %w", err)
	}
	files, err := s.fileRepo.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed files: %w", err)
	}

	trashed := make(map[string]bool, len(folders))
	for _, f := range folders {
		trashed[f.ID] = true
	}

	listing := &models.TrashListing{Folders: []models.Folder{}, Files: []models.File{}}
	for _, f := range folders {
		if f.ParentID == nil || !trashed[*f.ParentID] {
			listing.Folders = append(listing.Folders, f)
		}
	}
	for _, f := range files {
		if !trashed[f.FolderID] {
			listing.Files = append(listing.Files, f)
		}
	}
	return listing, nil
}

// EmptyTrash purges every trash root. It stops at the first failure; roots
// already purged stay purged.
func (s *trashService) EmptyTrash(ctx context.Context, ownerID string) (int, error) {
	listing, err := s.ListTrash(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	purged := 0
	for i := range listing.Folders {
		if err := s.purger.purgeFolder(ctx, &listing.Folders[i]); err != nil {
			return purged, err
		}
		purged++
	}
	for i := range listing.Files {
		if err := s.purger.purgeFile(ctx, &listing.Files[i]); err != nil {
			return purged, err
		}
		purged++
	}

	s.logger.Info("trash emptied", "owner_id", ownerID, "roots", purged)
	return purged, nil
}

type searchService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
}

// NewSearchService creates a name search over active entities
func NewSearchService(folderRepo driveRepo.FolderRepository, fileRepo driveRepo.FileRepository) driveSvc.SearchService {
	return &searchService{folderRepo: folderRepo, fileRepo: fileRepo}
}

func (s *searchService) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, validationError(err)
	}

	folders, err := s.folderRepo.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	files, err := s.fileRepo.Search(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &models.SearchResults{Query: opts.Query, Folders: folders, Files: files}, nil
}
