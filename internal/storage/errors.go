package storage

import (
	"errors"
	"fmt"

	"cloudvault/internal/domain"
)

func notFound(op string, kind Kind, key string) error {
	return fmt.Errorf("storage %s %s (%s): %w", op, key, kind, domain.ErrNotFound)
}

func backendError(op string, kind Kind, key string, err error) error {
	return &domain.StorageError{Op: op, Provider: string(kind), Key: key, Err: err}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
