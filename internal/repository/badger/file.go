package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
)

// FileRepository implements driveRepo.FileRepository on badger.
type FileRepository struct {
	store *Store
}

// NewFileRepository creates a file repository backed by store
func NewFileRepository(store *Store) driveRepo.FileRepository {
	return &FileRepository{store: store}
}

func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		existing, err := getFile(txn, file.ID)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
		}
		folder, err := getJSON[models.Folder](txn, keyFolder(file.FolderID))
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		if folder == nil {
			return fmt.Errorf("folder %s: %w", file.FolderID, domain.ErrNotFound)
		}
		return putFile(txn, file, nil)
	})
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	var file *models.File
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		file, err = getFile(txn, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return file, nil
}

func (r *FileRepository) GetByShareID(ctx context.Context, shareID string) (*models.File, error) {
	var file *models.File
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		id, err := readIndex(txn, keyFileShare(shareID))
		if err != nil || id == "" {
			return err
		}
		file, err = getFile(txn, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get file by share id: %w", err)
	}
	if file == nil || !file.IsShared || file.ShareID == nil || *file.ShareID != shareID {
		return nil, fmt.Errorf("shared file: %w", domain.ErrNotFound)
	}
	return file, nil
}

func (r *FileRepository) ListByFolder(ctx context.Context, folderID string, includeTrashed bool) ([]models.File, error) {
	files, err := r.loadByPrefix(ctx, prefixFolderFiles(folderID), func(f *models.File) bool {
		return includeTrashed || !f.IsTrashed()
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	sortFilesByName(files)
	return files, nil
}

func (r *FileRepository) ListByFolders(ctx context.Context, folderIDs []string) ([]models.File, error) {
	all := []models.File{}
	for _, folderID := range folderIDs {
		files, err := r.loadByPrefix(ctx, prefixFolderFiles(folderID), func(*models.File) bool { return true })
		if err != nil {
			return nil, fmt.Errorf("list files in subtree: %w", err)
		}
		all = append(all, files...)
	}
	return all, nil
}

func (r *FileRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.File, error) {
	files, err := r.loadByPrefix(ctx, prefixFileOwner(ownerID), func(f *models.File) bool {
		return f.IsTrashed()
	})
	if err != nil {
		return nil, fmt.Errorf("list trashed files: %w", err)
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].DeletedAt.Equal(*files[j].DeletedAt) {
			return files[i].DeletedAt.After(*files[j].DeletedAt)
		}
		return files[i].OriginalName < files[j].OriginalName
	})
	return files, nil
}

func (r *FileRepository) Search(ctx context.Context, opts *models.SearchOptions) ([]models.File, error) {
	needle := strings.ToLower(opts.Query)
	files, err := r.loadByPrefix(ctx, prefixFileOwner(opts.OwnerID), func(f *models.File) bool {
		return !f.IsTrashed() && strings.Contains(strings.ToLower(f.OriginalName), needle)
	})
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	sortFilesByName(files)
	if opts.Limit > 0 && len(files) > opts.Limit {
		files = files[:opts.Limit]
	}
	return files, nil
}

func (r *FileRepository) Update(ctx context.Context, file *models.File) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		old, err := getFile(txn, file.ID)
		if err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		if old == nil {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
		}
		if file.FolderID != old.FolderID {
			folder, err := getJSON[models.Folder](txn, keyFolder(file.FolderID))
			if err != nil {
				return fmt.Errorf("update file: %w", err)
			}
			if folder == nil {
				return fmt.Errorf("folder %s: %w", file.FolderID, domain.ErrNotFound)
			}
		}
		return putFile(txn, file, old)
	})
}

func (r *FileRepository) MarkDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	return r.mutateEach(ctx, ids, func(f *models.File) bool {
		if f.IsTrashed() {
			return false
		}
		stamp := deletedAt
		f.DeletedAt = &stamp
		return true
	})
}

func (r *FileRepository) ClearDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	return r.mutateEach(ctx, ids, func(f *models.File) bool {
		if f.DeletedAt == nil || !f.DeletedAt.Equal(deletedAt) {
			return false
		}
		f.DeletedAt = nil
		return true
	})
}

func (r *FileRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.store.update(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			old, err := getFile(txn, id)
			if err != nil {
				return fmt.Errorf("delete files: %w", err)
			}
			if old == nil {
				continue
			}
			if err := deleteFileIndexes(txn, old); err != nil {
				return fmt.Errorf("delete files: %w", err)
			}
			if err := txn.Delete(keyFile(id)); err != nil {
				return fmt.Errorf("delete files: %w", err)
			}
		}
		return nil
	})
}

func (r *FileRepository) mutateEach(ctx context.Context, ids []string, fn func(f *models.File) bool) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.store.update(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			f, err := getFile(txn, id)
			if err != nil {
				return err
			}
			if f == nil {
				continue
			}
			old := *f
			if !fn(f) {
				continue
			}
			f.UpdatedAt = now
			if err := putFile(txn, f, &old); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *FileRepository) loadByPrefix(ctx context.Context, prefix []byte, keep func(*models.File) bool) ([]models.File, error) {
	files := []models.File{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		for _, id := range scanSuffixes(txn, prefix) {
			f, err := getFile(txn, id)
			if err != nil {
				return err
			}
			if f != nil && keep(f) {
				files = append(files, *f)
			}
		}
		return nil
	})
	return files, err
}

func putFile(txn *badger.Txn, f *models.File, old *models.File) error {
	if f.IsShared && f.ShareID != nil {
		owner, err := readIndex(txn, keyFileShare(*f.ShareID))
		if err != nil {
			return err
		}
		if owner != "" && owner != f.ID {
			return fmt.Errorf("share token: %w", domain.ErrConflict)
		}
	}

	if old != nil {
		if err := deleteFileIndexes(txn, old); err != nil {
			return err
		}
	}

	if err := setFile(txn, f); err != nil {
		return err
	}
	if err := txn.Set(keyFolderFile(f.FolderID, f.ID), nil); err != nil {
		return err
	}
	if err := txn.Set(keyFileOwner(f.OwnerID, f.ID), nil); err != nil {
		return err
	}
	if f.IsShared && f.ShareID != nil {
		if err := txn.Set(keyFileShare(*f.ShareID), []byte(f.ID)); err != nil {
			return err
		}
	}
	return nil
}

func deleteFileIndexes(txn *badger.Txn, f *models.File) error {
	if err := txn.Delete(keyFolderFile(f.FolderID, f.ID)); err != nil {
		return err
	}
	if err := txn.Delete(keyFileOwner(f.OwnerID, f.ID)); err != nil {
		return err
	}
	if f.ShareID != nil {
		if err := txn.Delete(keyFileShare(*f.ShareID)); err != nil {
			return err
		}
	}
	return nil
}

func sortFilesByName(files []models.File) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].OriginalName < files[j].OriginalName
	})
}
