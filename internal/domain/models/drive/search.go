package drive

import (
	"fmt"
	"strings"
)

// Default search configuration values
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// SearchOptions configures a name search over one owner's active entities.
type SearchOptions struct {
	// OwnerID limits the search to one owner's tree (required)
	OwnerID string

	// Query is matched case-insensitively as a substring of the name (required)
	Query string

	// Limit caps each result list (default: 50, max: 200)
	Limit int
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.OwnerID == "" {
		return fmt.Errorf("owner id is required")
	}
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	return nil
}

// SearchResults groups matching folders and files.
type SearchResults struct {
	Query   string   `json:"query"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}
