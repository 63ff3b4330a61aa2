package errs

import (
	"errors"
	"fmt"
)

// Error kinds returned by the usecases. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state")
	ErrCapacity     = errors.New("capacity exceeded")
	ErrConflict     = errors.New("conflict")
	ErrSettlement   = errors.New("settlement backend error")
	ErrStorage      = errors.New("storage error")
	ErrProvider     = errors.New("verification provider error")
)

// SettlementError carries the backend failure verbatim together with the
// bridge operation that produced it.
type SettlementError struct {
	Op  string
	Err error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement %s: %v", e.Op, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

func (e *SettlementError) Is(target error) bool { return target == ErrSettlement }

// StorageError wraps a blob store failure.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ProviderError wraps an identity verification provider failure.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("verification %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Kind returns the taxonomy sentinel matched by err, or nil when err is not
// one of ours.
func Kind(err error) error {
	for _, k := range []error{
		ErrNotFound, ErrForbidden, ErrValidation, ErrInvalidState,
		ErrCapacity, ErrConflict, ErrSettlement, ErrStorage, ErrProvider,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
