package loan

import (
	"context"

	"tuichain-backend/internal/domain/settlement"
)

func (u *Usecase) approvedLoanIdentifier(ctx context.Context, id uint64) (string, error) {
	l, err := u.getLoan(ctx, id)
	if err != nil {
		return "", err
	}
	return approvedIdentifier(l)
}

func (u *Usecase) SellPositions(ctx context.Context, id uint64) ([]settlement.SellPosition, error) {
	ident, err := u.approvedLoanIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.bridge.SellPositions(ctx, ident)
}

// LoanTransactions returns the unsigned transactions for a funding, payment
// or redemption operation on an approved loan.
func (u *Usecase) LoanTransactions(ctx context.Context, id uint64, req settlement.LoanTxRequest) ([]settlement.Transaction, error) {
	ident, err := u.approvedLoanIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.bridge.BuildLoanTransactions(ctx, ident, req)
}

func (u *Usecase) MarketTransactions(ctx context.Context, id uint64, req settlement.MarketTxRequest) ([]settlement.Transaction, error) {
	ident, err := u.approvedLoanIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.bridge.BuildMarketTransactions(ctx, ident, req)
}
