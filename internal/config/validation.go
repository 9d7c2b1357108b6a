package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// Validate checks struct tags, then rules that span several fields.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Database.Driver == "postgres" && cfg.Database.URL == "" {
		return fmt.Errorf("database.url: required when database.driver is postgres")
	}

	switch cfg.Storage.Provider {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path: required when storage.provider is local")
		}
	case "s3", "minio":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket: required when storage.provider is %s", cfg.Storage.Provider)
		}
		if (cfg.Storage.S3.AccessKeyID == "") != (cfg.Storage.S3.SecretAccessKey == "") {
			return fmt.Errorf("storage.s3: access_key_id and secret_access_key must be set together")
		}
	case "gcs", "google":
		if cfg.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket: required when storage.provider is %s", cfg.Storage.Provider)
		}
	}

	if cfg.Auth.JWKSURL == "" && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth: jwks_url or jwt_secret is required")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
