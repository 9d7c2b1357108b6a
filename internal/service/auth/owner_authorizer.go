package auth

import (
	"context"
	"fmt"

	"cloudvault/internal/domain"
	"cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a folder or file only if its owner_id matches.
//
// Missing entities surface as ErrNotFound; entities owned by someone else
// surface as ErrForbidden.
type OwnerBasedAuthorizer struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
	}
}

// AuthorizeFolder checks if user owns the folder
func (a *OwnerBasedAuthorizer) AuthorizeFolder(ctx context.Context, userID, folderID string) (*drive.Folder, error) {
	folder, err := a.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("get folder for auth: %w", err)
	}
	if folder.OwnerID != userID {
		return nil, fmt.Errorf("access denied to folder %s: %w", folderID, domain.ErrForbidden)
	}
	return folder, nil
}

// AuthorizeFile checks if user owns the file
func (a *OwnerBasedAuthorizer) AuthorizeFile(ctx context.Context, userID, fileID string) (*drive.File, error) {
	file, err := a.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("get file for auth: %w", err)
	}
	if file.OwnerID != userID {
		return nil, fmt.Errorf("access denied to file %s: %w", fileID, domain.ErrForbidden)
	}
	return file, nil
}
