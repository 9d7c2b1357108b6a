package drive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/telemetry"
)

// publicGateway serves read-only views of one share root to anonymous callers.
type publicGateway struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	tree       *treeWalker
	providers  ProviderSource
	emitter    telemetry.Emitter
	logger     *slog.Logger
}

// NewPublicGateway creates the anonymous share gateway
func NewPublicGateway(
	folderRepo driveRepo.FolderRepository,
	fileRepo driveRepo.FileRepository,
	providers ProviderSource,
	emitter telemetry.Emitter,
	logger *slog.Logger,
) driveSvc.PublicGateway {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	return &publicGateway{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		tree:       newTreeWalker(folderRepo, fileRepo, logger),
		providers:  providers,
		emitter:    emitter,
		logger:     logger.With("component", "public_gateway"),
	}
}

// notFoundPublic is the single answer for every unreachable entity.
func notFoundPublic() error {
	return &domain.NotFoundError{Message: "not found or access denied"}
}

// Resolve matches the token against folders first, then files
func (g *publicGateway) Resolve(ctx context.Context, token string) (*models.ShareTarget, error) {
	target, err := g.resolve(ctx, token)
	if err != nil {
		return nil, g.conceal(ctx, token, err)
	}
	return target, nil
}

func (g *publicGateway) resolve(ctx context.Context, token string) (*models.ShareTarget, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}

	folder, err := g.folderRepo.GetByShareID(ctx, token)
	if err == nil {
		if folder.IsTrashed() {
			return nil, domain.ErrNotFound
		}
		return &models.ShareTarget{Kind: models.ShareKindFolder, Folder: folder}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	file, err := g.fileRepo.GetByShareID(ctx, token)
	if err != nil {
		return nil, err
	}
	if file.IsTrashed() {
		return nil, domain.ErrNotFound
	}
	return &models.ShareTarget{Kind: models.ShareKindFile, File: file}, nil
}

// ListShared lists the share root, or a folder inside it that passes the
// containment check. The breadcrumb never reaches above the share root.
func (g *publicGateway) ListShared(ctx context.Context, token string, folderID *string) (*models.PublicListing, error) {
	listing, err := g.listShared(ctx, token, folderID)
	if err != nil {
		return nil, g.conceal(ctx, token, err)
	}
	return listing, nil
}

func (g *publicGateway) listShared(ctx context.Context, token string, folderID *string) (*models.PublicListing, error) {
	target, err := g.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if target.Kind == models.ShareKindFile {
		if folderID != nil {
			return nil, domain.ErrNotFound
		}
		file := models.NewPublicFile(target.File)
		return &models.PublicListing{
			Kind:       models.ShareKindFile,
			File:       &file,
			Folders:    []models.PublicFolder{},
			Files:      []models.PublicFile{},
			Breadcrumb: []models.BreadcrumbItem{},
		}, nil
	}

	root := target.Folder
	current := root
	crumbs := []models.BreadcrumbItem{{ID: root.ID, Name: root.Name}}

	if folderID != nil && *folderID != root.ID {
		current, err = g.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if current.IsTrashed() || current.OwnerID != root.OwnerID {
			return nil, domain.ErrNotFound
		}
		// The walk up doubles as the containment check: it fails unless it meets the root
		crumbs, err = g.tree.breadcrumb(ctx, current, &root.ID)
		if err != nil {
			return nil, err
		}
	}

	folders, err := g.folderRepo.ListChildren(ctx, root.OwnerID, &current.ID, false)
	if err != nil {
		return nil, err
	}
	files, err := g.fileRepo.ListByFolder(ctx, current.ID, false)
	if err != nil {
		return nil, err
	}

	folder := models.NewPublicFolder(current)
	listing := &models.PublicListing{
		Kind:       models.ShareKindFolder,
		Folder:     &folder,
		Folders:    make([]models.PublicFolder, 0, len(folders)),
		Files:      make([]models.PublicFile, 0, len(files)),
		Breadcrumb: crumbs,
	}
	for i := range folders {
		listing.Folders = append(listing.Folders, models.NewPublicFolder(&folders[i]))
	}
	for i := range files {
		listing.Files = append(listing.Files, models.NewPublicFile(&files[i]))
	}
	return listing, nil
}

// DownloadShared opens a directly shared file (fileID nil) or a file inside a
// shared folder's subtree.
func (g *publicGateway) DownloadShared(ctx context.Context, token string, fileID *string) (file *models.File, rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() {
		event := telemetry.Event{Operation: telemetry.OpPublicDownload}
		if file != nil {
			event.OwnerID = file.OwnerID
			event.EntityIDs = []string{file.ID}
			event.Provider = file.StorageProvider
			event.Bytes = file.Size
		}
		telemetry.Record(ctx, g.emitter, event, start, err)
	}()

	file, err = g.sharedFile(ctx, token, fileID)
	if err != nil {
		return nil, nil, g.conceal(ctx, token, err)
	}

	rc, err = openStored(ctx, g.providers, file)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, g.conceal(ctx, token, err)
		}
		return nil, nil, err
	}
	return file, rc, nil
}

func (g *publicGateway) sharedFile(ctx context.Context, token string, fileID *string) (*models.File, error) {
	target, err := g.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if target.Kind == models.ShareKindFile {
		if fileID != nil && *fileID != target.File.ID {
			return nil, domain.ErrNotFound
		}
		return target.File, nil
	}

	if fileID == nil {
		return nil, domain.ErrNotFound
	}
	root := target.Folder

	file, err := g.fileRepo.GetByID(ctx, *fileID)
	if err != nil {
		return nil, err
	}
	if file.IsTrashed() || file.OwnerID != root.OwnerID {
		return nil, domain.ErrNotFound
	}

	folder, err := g.folderRepo.GetByID(ctx, file.FolderID)
	if err != nil {
		return nil, err
	}
	if folder.IsTrashed() {
		return nil, domain.ErrNotFound
	}

	inside, err := g.tree.isDescendant(ctx, file.FolderID, root.ID)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, domain.ErrNotFound
	}
	return file, nil
}

// conceal collapses every way of failing to reach an entity into one public
// not-found error. Infrastructure failures pass through unchanged.
func (g *publicGateway) conceal(ctx context.Context, token string, err error) error {
	switch {
	case errors.Is(err, domain.ErrCorruption):
		g.logger.ErrorContext(ctx, "structural corruption behind share", "token_prefix", tokenPrefix(token), "error", err)
		return notFoundPublic()
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, errOutsideRoot):
		return notFoundPublic()
	default:
		return err
	}
}

func tokenPrefix(token string) string {
	if len(token) > 6 {
		return token[:6]
	}
	return token
}
