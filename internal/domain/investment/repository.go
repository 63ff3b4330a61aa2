package investment

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, i *Investment) error
	GetByID(ctx context.Context, id uint64) (*Investment, error)
	ListByInvestorID(ctx context.Context, investorID uint64) ([]Investment, error)
	ListByLoanID(ctx context.Context, loanID uint64) ([]Investment, error)
	// SumByLoanID is the ledger total that loans.current_amount mirrors.
	SumByLoanID(ctx context.Context, loanID uint64) (decimal.Decimal, error)
}
