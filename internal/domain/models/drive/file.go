package drive

import (
	"time"
)

type File struct {
	ID              string     `json:"id" db:"id"`
	OwnerID         string     `json:"owner_id" db:"owner_id"`
	FolderID        string     `json:"folder_id" db:"folder_id"`
	Name            string     `json:"name" db:"name"` // Generated storage name
	OriginalName    string     `json:"original_name" db:"original_name"`
	StorageKey      string     `json:"-" db:"storage_key"`
	StorageProvider string     `json:"storage_provider" db:"storage_provider"`
	MimeType        string     `json:"mime_type" db:"mime_type"`
	Size            int64      `json:"size" db:"size"`
	Checksum        string     `json:"checksum,omitempty" db:"checksum"` // xxhash64, hex
	IsShared        bool       `json:"is_shared" db:"is_shared"`
	ShareID         *string    `json:"share_id,omitempty" db:"share_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsTrashed reports whether the file carries a soft-delete marker.
func (f *File) IsTrashed() bool {
	return f.DeletedAt != nil
}
