package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	"cloudvault/internal/domain/repositories"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	"cloudvault/internal/storage"
	"cloudvault/internal/telemetry"
)

// ProviderSource hands out storage providers: the default one for new
// uploads, and the one matching a file's recorded tag for everything else.
// *storage.Registry implements it.
type ProviderSource interface {
	Default() storage.Provider
	Get(ctx context.Context, tag string) (storage.Provider, error)
}

// purger permanently removes trashed entities. Shared by the folder, file and
// trash services so every purge follows the same storage cleanup policy.
type purger struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	txManager  repositories.TransactionManager
	tree       *treeWalker
	providers  ProviderSource
	emitter    telemetry.Emitter
	logger     *slog.Logger
}

// purgeFolder removes root, every descendant folder and every contained file,
// whatever their own trash state. Stored bytes are released first and on a
// best-effort basis; the metadata delete runs in one transaction afterwards.
func (p *purger) purgeFolder(ctx context.Context, root *models.Folder) error {
	start := time.Now()
	event := telemetry.Event{Operation: telemetry.OpFolderPurge, OwnerID: root.OwnerID, EntityIDs: []string{root.ID}}

	sub, err := p.tree.collectSubtree(ctx, root)
	if err != nil {
		telemetry.Record(ctx, p.emitter, event, start, err)
		return err
	}

	for i := range sub.Files {
		event.Bytes += sub.Files[i].Size
		p.releaseBytes(ctx, &sub.Files[i])
	}

	err = p.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := p.fileRepo.DeleteMany(txCtx, sub.fileIDs()); err != nil {
			return err
		}
		return p.folderRepo.DeleteMany(txCtx, sub.FolderIDs)
	})
	telemetry.Record(ctx, p.emitter, event, start, err)
	if err != nil {
		return fmt.Errorf("purge folder %s: %w", root.ID, err)
	}

	p.logger.Info("folder purged",
		"id", root.ID,
		"owner_id", root.OwnerID,
		"folders", len(sub.FolderIDs),
		"files", len(sub.Files),
	)
	return nil
}

func (p *purger) purgeFile(ctx context.Context, file *models.File) error {
	start := time.Now()
	event := telemetry.Event{Operation: telemetry.OpFilePurge, OwnerID: file.OwnerID, EntityIDs: []string{file.ID}, Bytes: file.Size}

	p.releaseBytes(ctx, file)

	err := p.fileRepo.DeleteMany(ctx, []string{file.ID})
	telemetry.Record(ctx, p.emitter, event, start, err)
	if err != nil {
		return fmt.Errorf("purge file %s: %w", file.ID, err)
	}

	p.logger.Info("file purged", "id", file.ID, "owner_id", file.OwnerID)
	return nil
}

// releaseBytes deletes a file's stored bytes. A key already missing from the
// backend counts as success; any other failure is logged and the purge goes
// on, leaving an orphaned object rather than a stuck trash entry.
func (p *purger) releaseBytes(ctx context.Context, file *models.File) {
	provider, err := p.providers.Get(ctx, file.StorageProvider)
	if err != nil {
		p.logger.Warn("storage cleanup skipped",
			"file_id", file.ID,
			"provider", file.StorageProvider,
			"error", err,
		)
		return
	}

	if err := provider.Delete(ctx, file.StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		p.logger.Warn("storage cleanup failed",
			"file_id", file.ID,
			"provider", file.StorageProvider,
			"key", file.StorageKey,
			"error", err,
		)
	}
}
