package loan

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrStaleAmount is returned by UpdateCurrentAmount when the row no longer
// holds the expected current_amount.
var ErrStaleAmount = errors.New("loan current_amount changed concurrently")

type Filter struct {
	StudentID *uint64
	States    []State
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetOpenLoanByStudentID returns the student's loan that is not WITHDRAWN
	// or REJECTED, or gorm.ErrRecordNotFound.
	GetOpenLoanByStudentID(ctx context.Context, studentID uint64) (*Loan, error)
	List(ctx context.Context, f Filter) ([]Loan, error)
	ListCreatingBefore(ctx context.Context, before time.Time) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, id uint64) error

	// Locking variants, only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	UpdateCurrentAmount(ctx context.Context, id uint64, from, to decimal.Decimal) error
}
