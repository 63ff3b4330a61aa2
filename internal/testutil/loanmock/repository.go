package loanmock

import (
	"context"
	"time"

	domain "tuichain-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes succeed.
type Repo struct {
	CreateFn                 func(ctx context.Context, l *domain.Loan) error
	GetByIDFn                func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetOpenLoanByStudentIDFn func(ctx context.Context, studentID uint64) (*domain.Loan, error)
	ListFn                   func(ctx context.Context, f domain.Filter) ([]domain.Loan, error)
	ListCreatingBeforeFn     func(ctx context.Context, before time.Time) ([]domain.Loan, error)
	SaveFn                   func(ctx context.Context, l *domain.Loan) error
	DeleteFn                 func(ctx context.Context, id uint64) error
	GetByIDForUpdateFn       func(ctx context.Context, id uint64) (*domain.Loan, error)
	UpdateCurrentAmountFn    func(ctx context.Context, id uint64, from, to decimal.Decimal) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOpenLoanByStudentID(ctx context.Context, studentID uint64) (*domain.Loan, error) {
	if m.GetOpenLoanByStudentIDFn != nil {
		return m.GetOpenLoanByStudentIDFn(ctx, studentID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) ListCreatingBefore(ctx context.Context, before time.Time) ([]domain.Loan, error) {
	if m.ListCreatingBeforeFn != nil {
		return m.ListCreatingBeforeFn(ctx, before)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, id uint64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) UpdateCurrentAmount(ctx context.Context, id uint64, from, to decimal.Decimal) error {
	if m.UpdateCurrentAmountFn != nil {
		return m.UpdateCurrentAmountFn(ctx, id, from, to)
	}
	return nil
}
