// Package seed builds demo folder trees from YAML manifests through the
// regular drive services, so seeded data obeys every service rule.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"cloudvault/internal/domain"
	"cloudvault/internal/domain/models/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
)

// Manifest describes one owner's tree.
//
//	owner: demo-user
//	folders:
//	  - name: Docs
//	    share: true
//	    files:
//	      - name: readme.txt
//	        content: hello
//	    folders:
//	      - name: Projects
type Manifest struct {
	Owner   string       `yaml:"owner"`
	Folders []FolderSpec `yaml:"folders"`
}

// FolderSpec is a folder with its nested content.
type FolderSpec struct {
	Name    string       `yaml:"name"`
	Share   bool         `yaml:"share"`
	Folders []FolderSpec `yaml:"folders"`
	Files   []FileSpec   `yaml:"files"`
}

// FileSpec is a file with inline content.
type FileSpec struct {
	Name     string `yaml:"name"`
	MimeType string `yaml:"mime_type"`
	Content  string `yaml:"content"`
	Share    bool   `yaml:"share"`
}

// Result counts what Apply created. Links maps "folder:Name" or "file:Name"
// to the issued share token.
type Result struct {
	Folders int
	Files   int
	Links   map[string]string
}

// ParseManifest decodes a manifest, rejecting unknown keys.
func ParseManifest(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if strings.TrimSpace(m.Owner) == "" {
		return nil, fmt.Errorf("manifest: owner is required")
	}
	return &m, nil
}

// Seeder applies manifests.
type Seeder struct {
	folders driveSvc.FolderService
	files   driveSvc.FileService
	shares  driveSvc.ShareService
	logger  *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(folders driveSvc.FolderService, files driveSvc.FileService, shares driveSvc.ShareService, logger *slog.Logger) *Seeder {
	return &Seeder{
		folders: folders,
		files:   files,
		shares:  shares,
		logger:  logger,
	}
}

// Apply creates the manifest's tree. Folders that already exist are reused,
// so re-running a manifest only adds files.
func (s *Seeder) Apply(ctx context.Context, m *Manifest) (*Result, error) {
	result := &Result{Links: make(map[string]string)}
	for _, spec := range m.Folders {
		if err := s.applyFolder(ctx, m.Owner, nil, spec, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Seeder) applyFolder(ctx context.Context, owner string, parentID *string, spec FolderSpec, result *Result) error {
	folder, err := s.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{
		OwnerID:  owner,
		Name:     spec.Name,
		ParentID: parentID,
	})

	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		detail, getErr := s.folders.GetFolderDetail(ctx, owner, conflict.ResourceID)
		if getErr != nil {
			return fmt.Errorf("reuse folder %q: %w", spec.Name, getErr)
		}
		folder = detail.Folder
		s.logger.Debug("folder exists, reusing", "name", spec.Name, "folder_id", folder.ID)
	case err != nil:
		return fmt.Errorf("create folder %q: %w", spec.Name, err)
	default:
		result.Folders++
		s.logger.Info("seeded folder", "path", folder.Path, "folder_id", folder.ID)
	}

	if spec.Share {
		link, err := s.shares.Share(ctx, owner, drive.ShareKindFolder, folder.ID)
		if err != nil {
			return fmt.Errorf("share folder %q: %w", spec.Name, err)
		}
		result.Links["folder:"+spec.Name] = link.ShareID
	}

	for _, fileSpec := range spec.Files {
		file, err := s.files.UploadFile(ctx, &driveSvc.UploadFileRequest{
			OwnerID:      owner,
			FolderID:     folder.ID,
			OriginalName: fileSpec.Name,
			MimeType:     fileSpec.MimeType,
			Content:      strings.NewReader(fileSpec.Content),
		})
		if err != nil {
			return fmt.Errorf("upload %q: %w", fileSpec.Name, err)
		}
		result.Files++
		s.logger.Info("seeded file", "folder", folder.Path, "name", file.OriginalName, "size", file.Size)

		if fileSpec.Share {
			link, err := s.shares.Share(ctx, owner, drive.ShareKindFile, file.ID)
			if err != nil {
				return fmt.Errorf("share file %q: %w", fileSpec.Name, err)
			}
			result.Links["file:"+fileSpec.Name] = link.ShareID
		}
	}

	for _, child := range spec.Folders {
		if err := s.applyFolder(ctx, owner, &folder.ID, child, result); err != nil {
			return err
		}
	}
	return nil
}
