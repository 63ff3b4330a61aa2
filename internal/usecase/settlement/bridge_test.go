package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"tuichain-backend/internal/domain/errs"
	domain "tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/testutil/settlementmock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBridge_CreateOnChainLoan(t *testing.T) {
	ctx := context.Background()
	params := domain.CreateLoanParams{RecipientAddress: "0xabc", RequestedValue: decimal.NewFromInt(10)}

	t.Run("success", func(t *testing.T) {
		be := &settlementmock.Backend{}
		be.On("CreateLoan", mock.Anything, params).Return(&domain.LoanHandle{Identifier: "0x1", TokenAddress: "0xt"}, nil)

		h, err := NewBridge(be, time.Second).CreateOnChainLoan(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, "0x1", h.Identifier)
		be.AssertExpectations(t)
	})

	t.Run("backend error is kept verbatim", func(t *testing.T) {
		be := &settlementmock.Backend{}
		cause := errors.New("insufficient gas")
		be.On("CreateLoan", mock.Anything, params).Return(nil, cause)

		_, err := NewBridge(be, time.Second).CreateOnChainLoan(ctx, params)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrSettlement)
		assert.ErrorIs(t, err, cause)
		var se *errs.SettlementError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "create_loan", se.Op)
	})

	t.Run("empty identifier is a failure", func(t *testing.T) {
		be := &settlementmock.Backend{}
		be.On("CreateLoan", mock.Anything, params).Return(&domain.LoanHandle{}, nil)

		_, err := NewBridge(be, time.Second).CreateOnChainLoan(ctx, params)
		assert.ErrorIs(t, err, errs.ErrSettlement)
	})
}

func TestBridge_TimeoutBoundsCall(t *testing.T) {
	be := &settlementmock.Backend{}
	be.On("CancelLoan", mock.Anything, "0x1").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded)

	start := time.Now()
	err := NewBridge(be, 20*time.Millisecond).CancelLoan(context.Background(), "0x1")
	assert.ErrorIs(t, err, errs.ErrSettlement)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBridge_Overlay(t *testing.T) {
	ctx := context.Background()
	be := &settlementmock.Backend{}
	be.On("GetLoan", mock.Anything, "0x1").Return(&domain.LoanHandle{Identifier: "0x1", TokenAddress: "0xtoken"}, nil)
	be.On("LoanState", mock.Anything, "0x1").Return(&domain.LoanState{
		Phase: domain.PhaseActive, FundedValue: decimal.NewFromInt(1000),
	}, nil)
	be.On("SellPositions", mock.Anything, "0x1").Return([]domain.SellPosition{
		{AmountTokens: decimal.NewFromInt(1), Price: decimal.NewFromInt(5)},
		{AmountTokens: decimal.NewFromInt(3), Price: decimal.NewFromInt(7)},
	}, nil)

	ov, err := NewBridge(be, time.Second).Overlay(ctx, "0x1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, ov.Phase)
	assert.Equal(t, "0xtoken", ov.TokenAddress)
	assert.True(t, ov.FundedValue.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, ov.CurrentMarketPrice)
	assert.True(t, ov.CurrentMarketPrice.Equal(decimal.NewFromInt(7)))
	be.AssertExpectations(t)
}

func TestBridge_OverlayFundingSkipsSellPositions(t *testing.T) {
	be := &settlementmock.Backend{}
	be.On("GetLoan", mock.Anything, "0x2").Return(&domain.LoanHandle{Identifier: "0x2"}, nil)
	be.On("LoanState", mock.Anything, "0x2").Return(&domain.LoanState{Phase: domain.PhaseFunding}, nil)

	ov, err := NewBridge(be, time.Second).Overlay(context.Background(), "0x2")
	require.NoError(t, err)
	require.NotNil(t, ov.CurrentMarketPrice)
	assert.True(t, ov.CurrentMarketPrice.Equal(domain.ReferencePrice))
	be.AssertNotCalled(t, "SellPositions", mock.Anything, "0x2")
}

func TestBridge_BuildTransactionsValidates(t *testing.T) {
	be := &settlementmock.Backend{}
	b := NewBridge(be, time.Second)

	_, err := b.BuildLoanTransactions(context.Background(), "0x1", domain.LoanTxRequest{Kind: domain.LoanTxMakePayment})
	assert.ErrorIs(t, err, errs.ErrValidation)
	be.AssertNotCalled(t, "BuildLoanTransactions", mock.Anything, mock.Anything, mock.Anything)

	req := domain.MarketTxRequest{Kind: domain.MarketTxRemoveSellPosition}
	be.On("BuildMarketTransactions", mock.Anything, "0x1", req).Return([]domain.Transaction{{To: "0xc", Data: "0x00"}}, nil)
	txs, err := b.BuildMarketTransactions(context.Background(), "0x1", req)
	require.NoError(t, err)
	assert.Equal(t, []domain.Transaction{{To: "0xc", Data: "0x00"}}, txs)
}
