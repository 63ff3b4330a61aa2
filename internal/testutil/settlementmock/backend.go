package settlementmock

import (
	"context"

	domain "tuichain-backend/internal/domain/settlement"

	"github.com/stretchr/testify/mock"
)

var _ domain.Backend = (*Backend)(nil)

// Backend is a testify mock of the settlement backend.
type Backend struct{ mock.Mock }

func (m *Backend) CreateLoan(ctx context.Context, p domain.CreateLoanParams) (*domain.LoanHandle, error) {
	args := m.Called(ctx, p)
	h, _ := args.Get(0).(*domain.LoanHandle)
	return h, args.Error(1)
}

func (m *Backend) GetLoan(ctx context.Context, identifier string) (*domain.LoanHandle, error) {
	args := m.Called(ctx, identifier)
	h, _ := args.Get(0).(*domain.LoanHandle)
	return h, args.Error(1)
}

func (m *Backend) ListLoans(ctx context.Context) ([]domain.LoanHandle, error) {
	args := m.Called(ctx)
	hs, _ := args.Get(0).([]domain.LoanHandle)
	return hs, args.Error(1)
}

func (m *Backend) LoanState(ctx context.Context, identifier string) (*domain.LoanState, error) {
	args := m.Called(ctx, identifier)
	st, _ := args.Get(0).(*domain.LoanState)
	return st, args.Error(1)
}

func (m *Backend) CancelLoan(ctx context.Context, identifier string) error {
	return m.Called(ctx, identifier).Error(0)
}

func (m *Backend) FinalizeLoan(ctx context.Context, identifier string) error {
	return m.Called(ctx, identifier).Error(0)
}

func (m *Backend) SellPositions(ctx context.Context, identifier string) ([]domain.SellPosition, error) {
	args := m.Called(ctx, identifier)
	ps, _ := args.Get(0).([]domain.SellPosition)
	return ps, args.Error(1)
}

func (m *Backend) BuildLoanTransactions(ctx context.Context, identifier string, req domain.LoanTxRequest) ([]domain.Transaction, error) {
	args := m.Called(ctx, identifier, req)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

func (m *Backend) BuildMarketTransactions(ctx context.Context, identifier string, req domain.MarketTxRequest) ([]domain.Transaction, error) {
	args := m.Called(ctx, identifier, req)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

func (m *Backend) ChainInfo(ctx context.Context) (*domain.ChainInfo, error) {
	args := m.Called(ctx)
	info, _ := args.Get(0).(*domain.ChainInfo)
	return info, args.Error(1)
}
