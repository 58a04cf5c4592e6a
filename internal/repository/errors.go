// internal/repository/errors.go
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/database"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrStaleVersion      = errors.New("record was modified concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// translate maps driver and gorm errors onto the package sentinels. Retryable
// driver errors pass through untouched so the transaction runner still sees
// them.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}
