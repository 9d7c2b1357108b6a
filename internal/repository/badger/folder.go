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

// FolderRepository implements driveRepo.FolderRepository on badger.
type FolderRepository struct {
	store *Store
}

// NewFolderRepository creates a folder repository backed by store
func NewFolderRepository(store *Store) driveRepo.FolderRepository {
	return &FolderRepository{store: store}
}

func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		existing, err := getJSON[models.Folder](txn, keyFolder(folder.ID))
		if err != nil {
			return fmt.Errorf("create folder: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
		}
		if folder.ParentID != nil {
			parent, err := getJSON[models.Folder](txn, keyFolder(*folder.ParentID))
			if err != nil {
				return fmt.Errorf("create folder: %w", err)
			}
			if parent == nil {
				return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
			}
		}
		return putFolder(txn, folder, nil)
	})
}

func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	var folder *models.Folder
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		folder, err = getJSON[models.Folder](txn, keyFolder(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	if folder == nil {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return folder, nil
}

func (r *FolderRepository) GetByShareID(ctx context.Context, shareID string) (*models.Folder, error) {
	var folder *models.Folder
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		id, err := readIndex(txn, keyFolderShare(shareID))
		if err != nil || id == "" {
			return err
		}
		folder, err = getJSON[models.Folder](txn, keyFolder(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get folder by share id: %w", err)
	}
	if folder == nil || !folder.IsShared || folder.ShareID == nil || *folder.ShareID != shareID {
		return nil, fmt.Errorf("shared folder: %w", domain.ErrNotFound)
	}
	return folder, nil
}

func (r *FolderRepository) ListChildren(ctx context.Context, ownerID string, parentID *string, includeTrashed bool) ([]models.Folder, error) {
	folders, err := r.loadByPrefix(ctx, prefixFolderChildren(ownerID, parentID), func(f *models.Folder) bool {
		return includeTrashed || !f.IsTrashed()
	})
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	sortFoldersByName(folders)
	return folders, nil
}

func (r *FolderRepository) FindActiveByName(ctx context.Context, ownerID string, parentID *string, name string) (*models.Folder, error) {
	siblings, err := r.ListChildren(ctx, ownerID, parentID, false)
	if err != nil {
		return nil, err
	}
	for i := range siblings {
		if siblings[i].Name == name {
			return &siblings[i], nil
		}
	}
	return nil, fmt.Errorf("folder %q: %w", name, domain.ErrNotFound)
}

func (r *FolderRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error) {
	folders, err := r.loadByPrefix(ctx, prefixFolderOwner(ownerID), func(f *models.Folder) bool {
		return f.IsTrashed()
	})
	if err != nil {
		return nil, fmt.Errorf("list trashed folders: %w", err)
	}
	sort.Slice(folders, func(i, j int) bool {
		if !folders[i].DeletedAt.Equal(*folders[j].DeletedAt) {
			return folders[i].DeletedAt.After(*folders[j].DeletedAt)
		}
		return folders[i].Name < folders[j].Name
	})
	return folders, nil
}

func (r *FolderRepository) Search(ctx context.Context, opts *models.SearchOptions) ([]models.Folder, error) {
	needle := strings.ToLower(opts.Query)
	folders, err := r.loadByPrefix(ctx, prefixFolderOwner(opts.OwnerID), func(f *models.Folder) bool {
		return !f.IsTrashed() && strings.Contains(strings.ToLower(f.Name), needle)
	})
	if err != nil {
		return nil, fmt.Errorf("search folders: %w", err)
	}
	sortFoldersByName(folders)
	if opts.Limit > 0 && len(folders) > opts.Limit {
		folders = folders[:opts.Limit]
	}
	return folders, nil
}

func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		old, err := getJSON[models.Folder](txn, keyFolder(folder.ID))
		if err != nil {
			return fmt.Errorf("update folder: %w", err)
		}
		if old == nil {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
		}
		return putFolder(txn, folder, old)
	})
}

func (r *FolderRepository) MarkDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	return r.mutateEach(ctx, ids, func(f *models.Folder) bool {
		if f.IsTrashed() {
			return false
		}
		stamp := deletedAt
		f.DeletedAt = &stamp
		return true
	})
}

func (r *FolderRepository) ClearDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	return r.mutateEach(ctx, ids, func(f *models.Folder) bool {
		if f.DeletedAt == nil || !f.DeletedAt.Equal(deletedAt) {
			return false
		}
		f.DeletedAt = nil
		return true
	})
}

func (r *FolderRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.store.update(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			old, err := getJSON[models.Folder](txn, keyFolder(id))
			if err != nil {
				return fmt.Errorf("delete folders: %w", err)
			}
			if old == nil {
				continue
			}
			if err := deleteFolderKeys(txn, old); err != nil {
				return fmt.Errorf("delete folders: %w", err)
			}
		}
		return nil
	})
}

// mutateEach applies fn to every listed folder and persists the ones it changed.
func (r *FolderRepository) mutateEach(ctx context.Context, ids []string, fn func(f *models.Folder) bool) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.store.update(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			f, err := getJSON[models.Folder](txn, keyFolder(id))
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
			if err := putFolder(txn, f, &old); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *FolderRepository) loadByPrefix(ctx context.Context, prefix []byte, keep func(*models.Folder) bool) ([]models.Folder, error) {
	folders := []models.Folder{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		for _, id := range scanSuffixes(txn, prefix) {
			f, err := getJSON[models.Folder](txn, keyFolder(id))
			if err != nil {
				return err
			}
			if f != nil && keep(f) {
				folders = append(folders, *f)
			}
		}
		return nil
	})
	return folders, err
}

// putFolder writes the record and reconciles its index keys against old.
func putFolder(txn *badger.Txn, f *models.Folder, old *models.Folder) error {
	if f.IsShared && f.ShareID != nil {
		owner, err := readIndex(txn, keyFolderShare(*f.ShareID))
		if err != nil {
			return err
		}
		if owner != "" && owner != f.ID {
			return fmt.Errorf("share token: %w", domain.ErrConflict)
		}
	}

	if old != nil {
		if err := deleteFolderIndexes(txn, old); err != nil {
			return err
		}
	}

	if err := setJSON(txn, keyFolder(f.ID), f); err != nil {
		return err
	}
	if err := txn.Set(keyFolderChild(f.OwnerID, f.ParentID, f.ID), nil); err != nil {
		return err
	}
	if err := txn.Set(keyFolderOwner(f.OwnerID, f.ID), nil); err != nil {
		return err
	}
	if f.IsShared && f.ShareID != nil {
		if err := txn.Set(keyFolderShare(*f.ShareID), []byte(f.ID)); err != nil {
			return err
		}
	}
	return nil
}

func deleteFolderIndexes(txn *badger.Txn, f *models.Folder) error {
	if err := txn.Delete(keyFolderChild(f.OwnerID, f.ParentID, f.ID)); err != nil {
		return err
	}
	if err := txn.Delete(keyFolderOwner(f.OwnerID, f.ID)); err != nil {
		return err
	}
	if f.ShareID != nil {
		if err := txn.Delete(keyFolderShare(*f.ShareID)); err != nil {
			return err
		}
	}
	return nil
}

func deleteFolderKeys(txn *badger.Txn, f *models.Folder) error {
	if err := deleteFolderIndexes(txn, f); err != nil {
		return err
	}
	return txn.Delete(keyFolder(f.ID))
}

func sortFoldersByName(folders []models.Folder) {
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].Name < folders[j].Name
	})
}
