package uow

import (
	"context"

	"tuichain-backend/internal/domain/approval"
	"tuichain-backend/internal/domain/document"
	"tuichain-backend/internal/domain/investment"
	"tuichain-backend/internal/domain/loan"
)

// Repos are bound to the transaction of the enclosing unit of work.
type Repos struct {
	Loans       loan.Repository
	Investments investment.Repository
	Documents   document.Repository
	Approvals   approval.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
