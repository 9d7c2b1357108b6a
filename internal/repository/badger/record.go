package badger

import (
	"time"

	"github.com/dgraph-io/badger/v4"

	models "cloudvault/internal/domain/models/drive"
)

// fileRecord is the stored form of a file. The API model hides the storage
// key from JSON, so it cannot be written as is.
type fileRecord struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	FolderID        string     `json:"folder_id"`
	Name            string     `json:"name"`
	OriginalName    string     `json:"original_name"`
	StorageKey      string     `json:"storage_key"`
	StorageProvider string     `json:"storage_provider"`
	MimeType        string     `json:"mime_type"`
	Size            int64      `json:"size"`
	Checksum        string     `json:"checksum,omitempty"`
	IsShared        bool       `json:"is_shared"`
	ShareID         *string    `json:"share_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

func toFileRecord(f *models.File) *fileRecord {
	return &fileRecord{
		ID:              f.ID,
		OwnerID:         f.OwnerID,
		FolderID:        f.FolderID,
		Name:            f.Name,
		OriginalName:    f.OriginalName,
		StorageKey:      f.StorageKey,
		StorageProvider: f.StorageProvider,
		MimeType:        f.MimeType,
		Size:            f.Size,
		Checksum:        f.Checksum,
		IsShared:        f.IsShared,
		ShareID:         f.ShareID,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
		DeletedAt:       f.DeletedAt,
	}
}

func (r *fileRecord) toModel() *models.File {
	return &models.File{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		FolderID:        r.FolderID,
		Name:            r.Name,
		OriginalName:    r.OriginalName,
		StorageKey:      r.StorageKey,
		StorageProvider: r.StorageProvider,
		MimeType:        r.MimeType,
		Size:            r.Size,
		Checksum:        r.Checksum,
		IsShared:        r.IsShared,
		ShareID:         r.ShareID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		DeletedAt:       r.DeletedAt,
	}
}

// getFile loads the file stored at id. A missing record returns (nil, nil).
func getFile(txn *badger.Txn, id string) (*models.File, error) {
	rec, err := getJSON[fileRecord](txn, keyFile(id))
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func setFile(txn *badger.Txn, f *models.File) error {
	return setJSON(txn, keyFile(f.ID), toFileRecord(f))
}
