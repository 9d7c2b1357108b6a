package drive

import (
	"time"
)

type Folder struct {
	ID        string     `json:"id" db:"id"`
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	ParentID  *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	Name      string     `json:"name" db:"name"`
	Path      string     `json:"path" db:"path"` // Materialized display path, e.g. "/Docs/Projects/"
	IsShared  bool       `json:"is_shared" db:"is_shared"`
	ShareID   *string    `json:"share_id,omitempty" db:"share_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsTrashed reports whether the folder carries a soft-delete marker.
func (f *Folder) IsTrashed() bool {
	return f.DeletedAt != nil
}

// ChildPath builds the materialized path of a child named name.
func (f *Folder) ChildPath(name string) string {
	return f.Path + name + "/"
}

// RootPath is the materialized path of a root-level folder.
func RootPath(name string) string {
	return "/" + name + "/"
}

// BreadcrumbItem is one hop of an ancestor chain, ordered root to leaf.
type BreadcrumbItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FolderDetail is a folder with its direct active children and breadcrumb.
type FolderDetail struct {
	Folder     *Folder          `json:"folder"`
	Folders    []Folder         `json:"folders"`
	Files      []File           `json:"files"`
	Breadcrumb []BreadcrumbItem `json:"breadcrumb"`
}
