package drive

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"cloudvault/internal/config"
	models "cloudvault/internal/domain/models/drive"
	"cloudvault/internal/domain/repositories"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/repository/badger"
	authSvc "cloudvault/internal/service/auth"
	"cloudvault/internal/storage"
	"cloudvault/internal/telemetry"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e telemetry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) find(op string) []telemetry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []telemetry.Event
	for _, e := range r.events {
		if e.Operation == op {
			out = append(out, e)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	folders driveSvc.FolderService
	files   driveSvc.FileService
	shares  driveSvc.ShareService
	public  driveSvc.PublicGateway
	trash   driveSvc.TrashService
	search  driveSvc.SearchService

	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	txManager  repositories.TransactionManager
	registry   *storage.Registry
	events     *recordingEmitter
	basePath   string
}

type fixtureOption func(*fixture)

// withFileRepo swaps the file repository the services see, e.g. to inject failures.
func withFileRepo(wrap func(driveRepo.FileRepository) driveRepo.FileRepository) fixtureOption {
	return func(f *fixture) { f.fileRepo = wrap(f.fileRepo) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()

	store, err := badger.Open("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		folderRepo: badger.NewFolderRepository(store),
		fileRepo:   badger.NewFileRepository(store),
		txManager:  store.TransactionManager(),
		events:     &recordingEmitter{},
		basePath:   t.TempDir(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.registry, err = storage.NewRegistry(ctx, config.StorageConfig{
		Provider: "local",
		Local:    config.LocalStorageConfig{BasePath: f.basePath},
	}, logger, f.events)
	require.NoError(t, err)

	authorizer := authSvc.NewOwnerBasedAuthorizer(f.folderRepo, f.fileRepo)
	f.folders = NewFolderService(f.folderRepo, f.fileRepo, f.txManager, authorizer, f.registry, f.events, logger)
	f.files = NewFileService(f.folderRepo, f.fileRepo, f.txManager, authorizer, f.registry, f.events, logger)
	f.shares = NewShareService(f.folderRepo, f.fileRepo, authorizer, f.events, logger)
	f.public = NewPublicGateway(f.folderRepo, f.fileRepo, f.registry, f.events, logger)
	f.trash = NewTrashService(f.folderRepo, f.fileRepo, f.txManager, f.registry, f.events, logger)
	f.search = NewSearchService(f.folderRepo, f.fileRepo)
	return f
}

func (f *fixture) mkdir(t *testing.T, owner, name string, parentID *string) *models.Folder {
	t.Helper()
	folder, err := f.folders.CreateFolder(context.Background(), &driveSvc.CreateFolderRequest{
		OwnerID:  owner,
		Name:     name,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return folder
}

func (f *fixture) upload(t *testing.T, owner, folderID, name string, content []byte) *models.File {
	t.Helper()
	file, err := f.files.UploadFile(context.Background(), &driveSvc.UploadFileRequest{
		OwnerID:      owner,
		FolderID:     folderID,
		OriginalName: name,
		MimeType:     "text/plain",
		Content:      bytes.NewReader(content),
	})
	require.NoError(t, err)
	return file
}

// storedObjects counts regular files under the local provider's root.
func (f *fixture) storedObjects(t *testing.T) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(f.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func ptr(s string) *string { return &s }
