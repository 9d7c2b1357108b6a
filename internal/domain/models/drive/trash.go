package drive

// TrashListing holds the roots of the trash: entities whose own soft-delete
// put them there, not descendants swept up by a cascade.
type TrashListing struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}
