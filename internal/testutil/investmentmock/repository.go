package investmentmock

import (
	"context"

	domain "tuichain-backend/internal/domain/investment"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn           func(ctx context.Context, i *domain.Investment) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Investment, error)
	ListByInvestorIDFn func(ctx context.Context, investorID uint64) ([]domain.Investment, error)
	ListByLoanIDFn     func(ctx context.Context, loanID uint64) ([]domain.Investment, error)
	SumByLoanIDFn      func(ctx context.Context, loanID uint64) (decimal.Decimal, error)
}

func (m *Repo) Create(ctx context.Context, i *domain.Investment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, i)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Investment, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByInvestorID(ctx context.Context, investorID uint64) ([]domain.Investment, error) {
	if m.ListByInvestorIDFn != nil {
		return m.ListByInvestorIDFn(ctx, investorID)
	}
	return nil, nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Investment, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) SumByLoanID(ctx context.Context, loanID uint64) (decimal.Decimal, error) {
	if m.SumByLoanIDFn != nil {
		return m.SumByLoanIDFn(ctx, loanID)
	}
	return decimal.Zero, nil
}
