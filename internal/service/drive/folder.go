package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	"cloudvault/internal/domain/repositories"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	"cloudvault/internal/domain/services"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/telemetry"
)

type folderService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	tree       *treeWalker
	purger     *purger
	emitter    telemetry.Emitter
	logger     *slog.Logger
}

// NewFolderService creates the folder side of the tree engine
func NewFolderService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	providers ProviderSource,
	emitter telemetry.Emitter,
	logger *slog.Logger,
) driveSvc.FolderService {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	tree := newTreeWalker(folderRepo, fileRepo, logger)
	return &folderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		txManager:  txManager,
		authorizer: authorizer,
		tree:       tree,
		purger: &purger{
			folderRepo: folderRepo,
			fileRepo:   fileRepo,
			txManager:  txManager,
			tree:       tree,
			providers:  providers,
			emitter:    emitter,
			logger:     logger,
		},
		emitter: emitter,
		logger:  logger,
	}
}

// CreateFolder creates a folder at the owner's top level or under an active parent
func (s *folderService) CreateFolder(ctx context.Context, req *driveSvc.CreateFolderRequest) (folder *models.Folder, err error) {
	start := time.Now()
	defer func() {
		event := telemetry.Event{Operation: telemetry.OpFolderCreate, OwnerID: req.OwnerID}
		if folder != nil {
			event.EntityIDs = []string{folder.ID}
		}
		telemetry.Record(ctx, s.emitter, event, start, err)
	}()

	if err := validateCreateFolder(req); err != nil {
		return nil, err
	}

	path := models.RootPath(req.Name)
	if req.ParentID != nil {
		parent, err := s.activeFolder(ctx, req.OwnerID, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent folder: %w", err)
		}
		path = parent.ChildPath(req.Name)
	}

	if err := s.checkSiblingName(ctx, req.OwnerID, req.ParentID, req.Name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder = &models.Folder{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_id", folder.ParentID,
		"path", folder.Path,
	)

	return folder, nil
}

// ListRootFolders lists the owner's active top-level folders
func (s *folderService) ListRootFolders(ctx context.Context, ownerID string) ([]models.Folder, error) {
	folders, err := s.folderRepo.ListChildren(ctx, ownerID, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	return folders, nil
}

// GetFolderDetail returns an active folder with its active children and breadcrumb
func (s *folderService) GetFolderDetail(ctx context.Context, ownerID, folderID string) (*models.FolderDetail, error) {
	folder, err := s.activeFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}

	folders, err := s.folderRepo.ListChildren(ctx, ownerID, &folder.ID, false)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}

	files, err := s.fileRepo.ListByFolder(ctx, folder.ID, false)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	crumbs, err := s.tree.breadcrumb(ctx, folder, nil)
	if err != nil {
		if errors.Is(err, domain.ErrCorruption) {
			s.logger.Error("breadcrumb walk failed", "folder_id", folder.ID, "error", err)
		}
		return nil, err
	}

	return &models.FolderDetail{
		Folder:     folder,
		Folders:    folders,
		Files:      files,
		Breadcrumb: crumbs,
	}, nil
}

// UpdateFolder renames and/or moves a folder. Only the folder's own path is
// recomputed; descendants keep their advisory paths.
func (s *folderService) UpdateFolder(ctx context.Context, ownerID, folderID string, req *driveSvc.UpdateFolderRequest) (folder *models.Folder, err error) {
	start := time.Now()
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{
			Operation: telemetry.OpFolderRename,
			OwnerID:   ownerID,
			EntityIDs: []string{folderID},
		}, start, err)
	}()

	if err := validateUpdateFolder(req); err != nil {
		return nil, err
	}

	folder, err = s.activeFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		folder.Name = *req.Name
	}

	// Tri-state: only move if the field was present in the request
	if req.ParentID.Present {
		if req.ParentID.Value != nil {
			target, err := s.activeFolder(ctx, ownerID, *req.ParentID.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid target folder: %w", err)
			}

			// A folder cannot become its own ancestor
			inside, err := s.tree.isDescendant(ctx, target.ID, folder.ID)
			if err != nil {
				return nil, err
			}
			if inside {
				return nil, &domain.ValidationError{Message: "cannot move a folder into itself or one of its descendants"}
			}

			folder.ParentID = &target.ID
			s.logger.Debug("moving folder", "folder_id", folder.ID, "new_parent_id", target.ID)
		} else {
			folder.ParentID = nil
			s.logger.Debug("moving folder to root", "folder_id", folder.ID)
		}
	}

	if err := s.checkSiblingName(ctx, ownerID, folder.ParentID, folder.Name, folder.ID); err != nil {
		return nil, err
	}

	path, err := s.pathFor(ctx, ownerID, folder.ParentID, folder.Name)
	if err != nil {
		return nil, err
	}
	folder.Path = path
	folder.UpdatedAt = time.Now().UTC()

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder updated",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"path", folder.Path,
	)

	return folder, nil
}

// SoftDeleteFolder trashes folderID and its whole subtree.
//
// Every entity newly trashed by this call carries the same deletedAt stamp;
// entities already in the trash keep theirs. All marks are written in one
// store transaction. Calling it again on a trashed folder reuses the
// folder's stamp, so an interrupted cascade can be finished by retrying.
func (s *folderService) SoftDeleteFolder(ctx context.Context, ownerID, folderID string) (err error) {
	start := time.Now()
	event := telemetry.Event{Operation: telemetry.OpFolderDelete, OwnerID: ownerID, EntityIDs: []string{folderID}}
	defer func() { telemetry.Record(ctx, s.emitter, event, start, err) }()

	folder, err := s.authorizer.AuthorizeFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}

	stamp := trashStamp()
	if folder.DeletedAt != nil {
		stamp = *folder.DeletedAt
	}

	var affected int
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		sub, err := s.tree.collectSubtree(txCtx, folder)
		if err != nil {
			return err
		}
		affected = len(sub.FolderIDs) + len(sub.Files)

		if err := s.folderRepo.MarkDeleted(txCtx, sub.FolderIDs, stamp); err != nil {
			return err
		}
		return s.fileRepo.MarkDeleted(txCtx, sub.fileIDs(), stamp)
	})
	if err != nil {
		return fmt.Errorf("trash folder %s: %w", folderID, err)
	}

	s.logger.Info("folder trashed",
		"id", folder.ID,
		"owner_id", ownerID,
		"deleted_at", stamp,
		"subtree_size", affected,
	)

	return nil
}

// RestoreFolder restores folderID and every descendant trashed by the same
// delete. Descendants trashed earlier by their own delete stay in the trash.
func (s *folderService) RestoreFolder(ctx context.Context, ownerID, folderID string) (folder *models.Folder, err error) {
	start := time.Now()
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{
			Operation: telemetry.OpFolderRestore,
			OwnerID:   ownerID,
			EntityIDs: []string{folderID},
		}, start, err)
	}()

	folder, err = s.authorizer.AuthorizeFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	if folder.DeletedAt == nil {
		return folder, nil
	}
	stamp := *folder.DeletedAt

	if folder.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *folder.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load parent folder: %w", err)
		}
		if parent.IsTrashed() {
			return nil, &domain.ValidationError{Message: "restore the parent folder first"}
		}
	}

	if err := s.checkSiblingName(ctx, ownerID, folder.ParentID, folder.Name, folder.ID); err != nil {
		return nil, err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		sub, err := s.tree.collectSubtree(txCtx, folder)
		if err != nil {
			return err
		}
		if err := s.folderRepo.ClearDeleted(txCtx, sub.FolderIDs, stamp); err != nil {
			return err
		}
		return s.fileRepo.ClearDeleted(txCtx, sub.fileIDs(), stamp)
	})
	if err != nil {
		return nil, fmt.Errorf("restore folder %s: %w", folderID, err)
	}

	s.logger.Info("folder restored", "id", folder.ID, "owner_id", ownerID)

	return s.folderRepo.GetByID(ctx, folder.ID)
}

// PermanentDeleteFolder purges a trashed folder and everything below it
func (s *folderService) PermanentDeleteFolder(ctx context.Context, ownerID, folderID string) error {
	folder, err := s.authorizer.AuthorizeFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}
	if !folder.IsTrashed() {
		return &domain.ValidationError{Message: "folder must be in the trash before it can be permanently deleted"}
	}

	return s.purger.purgeFolder(ctx, folder)
}

// activeFolder authorizes and loads a folder, treating a trashed one as absent.
func (s *folderService) activeFolder(ctx context.Context, ownerID, folderID string) (*models.Folder, error) {
	folder, err := s.authorizer.AuthorizeFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	if folder.IsTrashed() {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s is in the trash", folderID)}
	}
	return folder, nil
}

// checkSiblingName rejects a name already used by another active folder under parentID.
func (s *folderService) checkSiblingName(ctx context.Context, ownerID string, parentID *string, name, selfID string) error {
	existing, err := s.folderRepo.FindActiveByName(ctx, ownerID, parentID, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("check for duplicate names: %w", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
		ResourceType: "folder",
		ResourceID:   existing.ID,
	}
}

func (s *folderService) pathFor(ctx context.Context, ownerID string, parentID *string, name string) (string, error) {
	if parentID == nil {
		return models.RootPath(name), nil
	}
	parent, err := s.folderRepo.GetByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", &domain.CorruptionError{EntityID: *parentID, Reason: "parent folder is missing"}
		}
		return "", err
	}
	if parent.OwnerID != ownerID {
		return "", &domain.CorruptionError{EntityID: *parentID, Reason: "parent belongs to another owner"}
	}
	return parent.ChildPath(name), nil
}
