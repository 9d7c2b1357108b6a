package drive

// ShareKind identifies what a share token points at.
type ShareKind string

const (
	ShareKindFolder ShareKind = "folder"
	ShareKindFile   ShareKind = "file"
)

// ShareTarget is the root entity a share token resolves to.
// Exactly one of Folder or File is set, matching Kind.
type ShareTarget struct {
	Kind   ShareKind `json:"kind"`
	Folder *Folder   `json:"folder,omitempty"`
	File   *File     `json:"file,omitempty"`
}

// ShareLink is returned from share operations.
type ShareLink struct {
	Kind    ShareKind `json:"kind"`
	ID      string    `json:"id"`
	ShareID string    `json:"share_id"`
}

// PublicListing is the read-only view of a shared folder (or of a folder inside it).
// Breadcrumb starts at the share root, never above it.
type PublicListing struct {
	Kind       ShareKind        `json:"kind"`
	Folder     *PublicFolder    `json:"folder,omitempty"`
	File       *PublicFile      `json:"file,omitempty"`
	Folders    []PublicFolder   `json:"folders"`
	Files      []PublicFile     `json:"files"`
	Breadcrumb []BreadcrumbItem `json:"breadcrumb"`
}

// PublicFolder strips owner and share metadata from a folder.
type PublicFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicFile strips owner and storage metadata from a file.
type PublicFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

func NewPublicFolder(f *Folder) PublicFolder {
	return PublicFolder{ID: f.ID, Name: f.Name}
}

func NewPublicFile(f *File) PublicFile {
	return PublicFile{ID: f.ID, Name: f.OriginalName, MimeType: f.MimeType, Size: f.Size}
}
