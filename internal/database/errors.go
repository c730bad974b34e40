package database

import (
	"github.com/pkg/errors"

	"gorm.io/gorm"
)

var (
	// ErrStorageIO marks a failure of the persistence layer itself.
	ErrStorageIO = errors.New("storage unavailable")

	// ErrNotFound marks a reference to a category or mapping that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName marks a category name collision.
	ErrDuplicateName = errors.New("duplicate category name")
)

// StorageError wraps a driver error. errors.Is(err, ErrStorageIO) reports true
// for it while the driver error stays reachable through Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageIO.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageIO }

// ioError classifies err: constraint and not-found errors keep their own kind,
// anything else becomes a StorageError.
func ioError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrStorageIO) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(ErrDuplicateName, op)
	}
	return errors.WithStack(&StorageError{Op: op, Err: err})
}

// IsStorageError reports whether err is a persistence failure.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageIO)
}
