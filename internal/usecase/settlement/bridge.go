package settlement

import (
	"context"
	"fmt"
	"time"

	"tuichain-backend/internal/domain/errs"
	domain "tuichain-backend/internal/domain/settlement"
)

// DefaultTimeout bounds a single settlement call when none is configured.
const DefaultTimeout = 30 * time.Second

// Bridge is the only path from the core to the settlement backend. Every call
// is bounded by the configured timeout and every failure comes back as an
// *errs.SettlementError carrying the backend detail.
type Bridge struct {
	backend domain.Backend
	timeout time.Duration
}

func NewBridge(backend domain.Backend, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{backend: backend, timeout: timeout}
}

func (b *Bridge) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &errs.SettlementError{Op: op, Err: err}
}

func (b *Bridge) CreateOnChainLoan(ctx context.Context, p domain.CreateLoanParams) (*domain.LoanHandle, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	h, err := b.backend.CreateLoan(ctx, p)
	if err != nil {
		return nil, fail("create_loan", err)
	}
	if h == nil || h.Identifier == "" {
		return nil, fail("create_loan", fmt.Errorf("backend returned no identifier"))
	}
	return h, nil
}

func (b *Bridge) GetLoan(ctx context.Context, identifier string) (*domain.LoanHandle, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	h, err := b.backend.GetLoan(ctx, identifier)
	return h, fail("get_loan", err)
}

func (b *Bridge) LoanState(ctx context.Context, identifier string) (*domain.LoanState, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	st, err := b.backend.LoanState(ctx, identifier)
	return st, fail("loan_state", err)
}

func (b *Bridge) CancelLoan(ctx context.Context, identifier string) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return fail("cancel_loan", b.backend.CancelLoan(ctx, identifier))
}

func (b *Bridge) FinalizeLoan(ctx context.Context, identifier string) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return fail("finalize_loan", b.backend.FinalizeLoan(ctx, identifier))
}

func (b *Bridge) SellPositions(ctx context.Context, identifier string) ([]domain.SellPosition, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	ps, err := b.backend.SellPositions(ctx, identifier)
	return ps, fail("sell_positions", err)
}

func (b *Bridge) BuildLoanTransactions(ctx context.Context, identifier string, req domain.LoanTxRequest) ([]domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	ctx, cancel := b.bound(ctx)
	defer cancel()
	txs, err := b.backend.BuildLoanTransactions(ctx, identifier, req)
	return txs, fail("build_loan_transactions", err)
}

func (b *Bridge) BuildMarketTransactions(ctx context.Context, identifier string, req domain.MarketTxRequest) ([]domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	ctx, cancel := b.bound(ctx)
	defer cancel()
	txs, err := b.backend.BuildMarketTransactions(ctx, identifier, req)
	return txs, fail("build_market_transactions", err)
}

func (b *Bridge) Info(ctx context.Context) (*domain.ChainInfo, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	info, err := b.backend.ChainInfo(ctx)
	return info, fail("chain_info", err)
}

// Phase reads only the external phase of a loan.
func (b *Bridge) Phase(ctx context.Context, identifier string) (domain.Phase, error) {
	st, err := b.LoanState(ctx, identifier)
	if err != nil {
		return "", err
	}
	return st.Phase, nil
}

// Overlay gathers the live fields shown next to an approved loan.
func (b *Bridge) Overlay(ctx context.Context, identifier string) (*domain.Overlay, error) {
	h, err := b.GetLoan(ctx, identifier)
	if err != nil {
		return nil, err
	}
	st, err := b.LoanState(ctx, identifier)
	if err != nil {
		return nil, err
	}
	var positions []domain.SellPosition
	if st.Phase == domain.PhaseActive {
		if positions, err = b.SellPositions(ctx, identifier); err != nil {
			return nil, err
		}
	}
	return &domain.Overlay{
		Phase:              st.Phase,
		FundedValue:        st.FundedValue,
		TokenAddress:       h.TokenAddress,
		CurrentMarketPrice: domain.MarketPrice(*st, positions),
	}, nil
}
