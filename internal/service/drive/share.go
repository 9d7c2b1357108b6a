package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	"cloudvault/internal/domain/services"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/telemetry"
)

// shareTokenBytes is the token entropy: 128 bits.
const shareTokenBytes = 16

type shareService struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	authorizer services.ResourceAuthorizer
	emitter    telemetry.Emitter
	logger     *slog.Logger
}

// NewShareService creates a service issuing stable share tokens
func NewShareService(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	authorizer services.ResourceAuthorizer,
	emitter telemetry.Emitter,
	logger *slog.Logger,
) driveSvc.ShareService {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	return &shareService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		authorizer: authorizer,
		emitter:    emitter,
		logger:     logger,
	}
}

// Share returns the entity's token, issuing one if it is not shared yet.
// Two first shares racing on the same entity both write; the later write
// wins and the earlier caller's token stops resolving.
func (s *shareService) Share(ctx context.Context, ownerID string, kind models.ShareKind, id string) (link *models.ShareLink, err error) {
	start := time.Now()
	op := telemetry.OpFolderShare
	if kind == models.ShareKindFile {
		op = telemetry.OpFileShare
	}
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{Operation: op, OwnerID: ownerID, EntityIDs: []string{id}}, start, err)
	}()

	switch kind {
	case models.ShareKindFolder:
		return s.shareFolder(ctx, ownerID, id)
	case models.ShareKindFile:
		return s.shareFile(ctx, ownerID, id)
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown share kind %q", kind)}
	}
}

// Unshare revokes the token. The token is cleared, so a later Share issues a new one.
func (s *shareService) Unshare(ctx context.Context, ownerID string, kind models.ShareKind, id string) (err error) {
	start := time.Now()
	op := telemetry.OpFolderUnshare
	if kind == models.ShareKindFile {
		op = telemetry.OpFileUnshare
	}
	defer func() {
		telemetry.Record(ctx, s.emitter, telemetry.Event{Operation: op, OwnerID: ownerID, EntityIDs: []string{id}}, start, err)
	}()

	switch kind {
	case models.ShareKindFolder:
		folder, err := s.authorizer.AuthorizeFolder(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if !folder.IsShared && folder.ShareID == nil {
			return nil
		}
		folder.IsShared, folder.ShareID = false, nil
		folder.UpdatedAt = time.Now().UTC()
		if err := s.folderRepo.Update(ctx, folder); err != nil {
			return err
		}
	case models.ShareKindFile:
		file, err := s.authorizer.AuthorizeFile(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if !file.IsShared && file.ShareID == nil {
			return nil
		}
		file.IsShared, file.ShareID = false, nil
		file.UpdatedAt = time.Now().UTC()
		if err := s.fileRepo.Update(ctx, file); err != nil {
			return err
		}
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown share kind %q", kind)}
	}

	s.logger.Info("share revoked", "kind", kind, "id", id, "owner_id", ownerID)
	return nil
}

func (s *shareService) shareFolder(ctx context.Context, ownerID, id string) (*models.ShareLink, error) {
	folder, err := s.authorizer.AuthorizeFolder(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if folder.IsTrashed() {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s is in the trash", id)}
	}
	if folder.IsShared && folder.ShareID != nil {
		return &models.ShareLink{Kind: models.ShareKindFolder, ID: folder.ID, ShareID: *folder.ShareID}, nil
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	folder.IsShared, folder.ShareID = true, &token
	folder.UpdatedAt = time.Now().UTC()
	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder shared", "id", folder.ID, "owner_id", ownerID)
	return &models.ShareLink{Kind: models.ShareKindFolder, ID: folder.ID, ShareID: token}, nil
}

func (s *shareService) shareFile(ctx context.Context, ownerID, id string) (*models.ShareLink, error) {
	file, err := s.authorizer.AuthorizeFile(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if file.IsTrashed() {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s is in the trash", id)}
	}
	if file.IsShared && file.ShareID != nil {
		return &models.ShareLink{Kind: models.ShareKindFile, ID: file.ID, ShareID: *file.ShareID}, nil
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	file.IsShared, file.ShareID = true, &token
	file.UpdatedAt = time.Now().UTC()
	if err := s.fileRepo.Update(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file shared", "id", file.ID, "owner_id", ownerID)
	return &models.ShareLink{Kind: models.ShareKindFile, ID: file.ID, ShareID: token}, nil
}

func newShareToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
