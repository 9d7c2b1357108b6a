package drive

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"cloudvault/internal/config"
	"cloudvault/internal/domain"
	driveSvc "cloudvault/internal/domain/services/drive"
)

var noSlashes = regexp.MustCompile(`^[^/\\]+$`)

func folderNameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
		validation.Match(noSlashes).Error("folder name cannot contain slashes"),
	}
}

func fileNameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, config.MaxFileNameLength),
		validation.Match(noSlashes).Error("file name cannot contain slashes"),
	}
}

// validationError wraps an ozzo error so it classifies as domain.ErrValidation.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

func validateCreateFolder(req *driveSvc.CreateFolderRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) == "" {
		req.ParentID = nil
	}

	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name, folderNameRules()...),
	))
}

func validateUpdateFolder(req *driveSvc.UpdateFolderRequest) error {
	if req.Name == nil && !req.ParentID.Present {
		return validationError(fmt.Errorf("at least one field must be provided"))
	}
	if req.ParentID.Value != nil && strings.TrimSpace(*req.ParentID.Value) == "" {
		req.ParentID.Value = nil
	}
	if req.Name == nil {
		return nil
	}

	name := strings.TrimSpace(*req.Name)
	req.Name = &name
	return validationError(validation.Validate(name, folderNameRules()...))
}

func validateUpload(req *driveSvc.UploadFileRequest) error {
	req.OriginalName = strings.TrimSpace(req.OriginalName)

	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.FolderID, validation.Required),
		validation.Field(&req.OriginalName, fileNameRules()...),
		validation.Field(&req.Content, validation.NotNil),
	))
}

func validateUpdateFile(req *driveSvc.UpdateFileRequest) error {
	if req.OriginalName == nil && req.FolderID == nil {
		return validationError(fmt.Errorf("at least one field must be provided"))
	}
	if req.FolderID != nil && strings.TrimSpace(*req.FolderID) == "" {
		return validationError(fmt.Errorf("folder_id: files must live inside a folder"))
	}
	if req.OriginalName == nil {
		return nil
	}

	name := strings.TrimSpace(*req.OriginalName)
	req.OriginalName = &name
	return validationError(validation.Validate(name, fileNameRules()...))
}

// trashStamp is the instant recorded on every entity a cascade trashes.
// Microsecond precision survives a round trip through every store.
func trashStamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
