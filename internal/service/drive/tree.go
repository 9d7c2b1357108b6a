package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
)

// errOutsideRoot reports a chain that ended without reaching the requested root.
var errOutsideRoot = errors.New("outside share root")

// treeWalker answers structural questions by following parent_id chains.
// parent_id is the only authoritative link; path is never consulted.
type treeWalker struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	logger     *slog.Logger
}

func newTreeWalker(folderRepo driveRepo.FolderRepository, fileRepo driveRepo.FileRepository, logger *slog.Logger) *treeWalker {
	return &treeWalker{folderRepo: folderRepo, fileRepo: fileRepo, logger: logger}
}

// isDescendant reports whether candidateID is rootID or lies below it.
// A missing folder on the way up means the chain is broken and the answer is
// false; a repeated id is a cycle and returns a CorruptionError.
func (w *treeWalker) isDescendant(ctx context.Context, candidateID, rootID string) (bool, error) {
	visited := make(map[string]bool)
	current := candidateID

	for {
		if current == rootID {
			return true, nil
		}
		if visited[current] {
			return false, &domain.CorruptionError{EntityID: current, Reason: "parent chain contains a cycle"}
		}
		visited[current] = true

		folder, err := w.folderRepo.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if folder.ParentID == nil {
			return false, nil
		}
		current = *folder.ParentID
	}
}

// breadcrumb returns the chain from the top down to leaf, root first.
//
// With rootID nil the chain runs to the owner's top level and a missing
// parent is structural corruption. With rootID set the chain stops at that
// folder, and a chain that ends first is reported as errOutsideRoot; no
// partial breadcrumb is ever returned.
func (w *treeWalker) breadcrumb(ctx context.Context, leaf *models.Folder, rootID *string) ([]models.BreadcrumbItem, error) {
	var reversed []models.BreadcrumbItem
	visited := make(map[string]bool)
	current := leaf

	for {
		if visited[current.ID] {
			return nil, &domain.CorruptionError{EntityID: current.ID, Reason: "parent chain contains a cycle"}
		}
		visited[current.ID] = true
		reversed = append(reversed, models.BreadcrumbItem{ID: current.ID, Name: current.Name})

		if rootID != nil && current.ID == *rootID {
			break
		}
		if current.ParentID == nil {
			if rootID != nil {
				return nil, errOutsideRoot
			}
			break
		}

		parent, err := w.folderRepo.GetByID(ctx, *current.ParentID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if rootID != nil {
				return nil, errOutsideRoot
			}
			return nil, &domain.CorruptionError{EntityID: current.ID, Reason: "parent folder is missing"}
		}
		if parent.OwnerID != leaf.OwnerID {
			return nil, &domain.CorruptionError{EntityID: current.ID, Reason: "parent belongs to another owner"}
		}
		current = parent
	}

	items := make([]models.BreadcrumbItem, len(reversed))
	for i, item := range reversed {
		items[len(reversed)-1-i] = item
	}
	return items, nil
}

// subtree is the flat result of a tree walk below one folder.
type subtree struct {
	FolderIDs []string // root first, then breadth-first
	Files     []models.File
}

func (s *subtree) fileIDs() []string {
	ids := make([]string, len(s.Files))
	for i := range s.Files {
		ids[i] = s.Files[i].ID
	}
	return ids
}

// collectSubtree walks root and every descendant folder in any trash state,
// then loads every file inside them.
func (w *treeWalker) collectSubtree(ctx context.Context, root *models.Folder) (*subtree, error) {
	visited := map[string]bool{root.ID: true}
	ids := []string{root.ID}

	for i := 0; i < len(ids); i++ {
		parentID := ids[i]
		children, err := w.folderRepo.ListChildren(ctx, root.OwnerID, &parentID, true)
		if err != nil {
			return nil, fmt.Errorf("walk subtree of %s: %w", root.ID, err)
		}
		for _, child := range children {
			if visited[child.ID] {
				return nil, &domain.CorruptionError{EntityID: child.ID, Reason: "folder reached twice while walking subtree"}
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
		}
	}

	files, err := w.fileRepo.ListByFolders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list files of subtree %s: %w", root.ID, err)
	}

	return &subtree{FolderIDs: ids, Files: files}, nil
}
