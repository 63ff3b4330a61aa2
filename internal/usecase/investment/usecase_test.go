package investment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tuichain-backend/internal/adapter/repository/sqlstore"
	settlementadapter "tuichain-backend/internal/adapter/settlement"
	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/investment"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/domain/uow"
	"tuichain-backend/internal/testutil/dbtest"
	"tuichain-backend/internal/testutil/eventsmock"
	"tuichain-backend/internal/testutil/investmentmock"
	"tuichain-backend/internal/testutil/loanmock"
	"tuichain-backend/internal/testutil/uowmock"
	settlementuc "tuichain-backend/internal/usecase/settlement"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	student  = uint64(7)
	investor = uint64(8)
)

type harness struct {
	db     *gorm.DB
	uc     *Usecase
	chain  *settlementadapter.Memory
	events *eventsmock.Recorder
	loans  *sqlstore.LoanRepository
	invs   *sqlstore.InvestmentRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t)
	h := &harness{
		db:     db,
		chain:  settlementadapter.NewMemory(settlement.ChainInfo{ChainID: 1337}),
		events: &eventsmock.Recorder{},
		loans:  sqlstore.NewLoanRepository(db),
		invs:   sqlstore.NewInvestmentRepository(db),
	}
	h.uc = NewUsecase(h.loans, h.invs, sqlstore.NewGormUoW(db),
		settlementuc.NewBridge(h.chain, time.Second), h.events, zerolog.Nop())
	return h
}

// approvedLoan stores an APPROVED loan backed by a FUNDING on-chain loan.
func (h *harness) approvedLoan(t *testing.T, requested int64) *loan.Loan {
	t.Helper()
	ctx := context.Background()
	handle, err := h.chain.CreateLoan(ctx, settlement.CreateLoanParams{RequestedValue: decimal.NewFromInt(requested)})
	require.NoError(t, err)
	ident := handle.Identifier
	l := &loan.Loan{
		StudentID:        student,
		School:           "FEUP",
		Course:           "MIEIC",
		Destination:      "Porto",
		Description:      "tuition",
		RequestedValue:   decimal.NewFromInt(requested),
		CurrentAmount:    decimal.Zero,
		RecipientAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
		State:            loan.StateApproved,
		Identifier:       &ident,
		StateUpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, h.loans.Create(ctx, l))
	return l
}

func (h *harness) invest(loanID uint64, amount int64) error {
	_, err := h.uc.Invest(context.Background(), InvestInput{
		LoanID: loanID, InvestorID: investor, Amount: decimal.NewFromInt(amount),
	})
	return err
}

func (h *harness) assertLedger(t *testing.T, loanID uint64, want int64) {
	t.Helper()
	ctx := context.Background()
	l, err := h.loans.GetByID(ctx, loanID)
	require.NoError(t, err)
	sum, err := h.invs.SumByLoanID(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, decimal.NewFromInt(want).String(), l.CurrentAmount.String(), "current_amount")
	assert.True(t, sum.Equal(l.CurrentAmount), "sum %s != current_amount %s", sum, l.CurrentAmount)
}

func TestInvest_CapacityScenario(t *testing.T) {
	h := newHarness(t)
	l := h.approvedLoan(t, 1000)

	require.NoError(t, h.invest(l.ID, 600))
	h.assertLedger(t, l.ID, 600)

	assert.ErrorIs(t, h.invest(l.ID, 500), errs.ErrCapacity)
	h.assertLedger(t, l.ID, 600)

	require.NoError(t, h.invest(l.ID, 400))
	h.assertLedger(t, l.ID, 1000)

	assert.ErrorIs(t, h.invest(l.ID, 1), errs.ErrCapacity)
	h.assertLedger(t, l.ID, 1000)

	is, err := h.uc.ListByLoan(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Len(t, is, 2)
	assert.Equal(t, []events.Type{events.InvestmentCreated, events.InvestmentCreated}, h.events.Types())
}

func TestInvest_ConcurrentNeverOverfunds(t *testing.T) {
	h := newHarness(t)
	l := h.approvedLoan(t, 1000)

	// 12 x 150 = 1800 > 1000; exactly six fit
	const n = 12
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- h.invest(l.ID, 150)
		}()
	}
	wg.Wait()
	close(errCh)

	ok := 0
	for err := range errCh {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrCapacity)
	}
	assert.Equal(t, 6, ok)
	h.assertLedger(t, l.ID, 900)
}

func TestInvest_Rejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	l := h.approvedLoan(t, 1000)

	tests := []struct {
		name string
		in   InvestInput
		want error
	}{
		{"zero amount", InvestInput{LoanID: l.ID, InvestorID: investor, Amount: decimal.Zero}, errs.ErrValidation},
		{"fractional amount", InvestInput{LoanID: l.ID, InvestorID: investor, Amount: decimal.RequireFromString("0.5")}, errs.ErrValidation},
		{"missing loan id", InvestInput{InvestorID: investor, Amount: decimal.NewFromInt(1)}, errs.ErrValidation},
		{"unknown loan", InvestInput{LoanID: 999, InvestorID: investor, Amount: decimal.NewFromInt(1)}, errs.ErrNotFound},
		{"own loan", InvestInput{LoanID: l.ID, InvestorID: student, Amount: decimal.NewFromInt(1)}, errs.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.uc.Invest(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	h.assertLedger(t, l.ID, 0)
}

func TestInvest_RequiresFundingPhase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	pending := h.approvedLoan(t, 1000)
	pending.State = loan.StatePending
	pending.Identifier = nil
	require.NoError(t, h.loans.Save(ctx, pending))
	assert.ErrorIs(t, h.invest(pending.ID, 10), errs.ErrInvalidState)

	canceled := h.approvedLoan(t, 1000)
	require.NoError(t, h.chain.SetPhase(*canceled.Identifier, settlement.PhaseCanceled))
	assert.ErrorIs(t, h.invest(canceled.ID, 10), errs.ErrInvalidState)

	down := h.approvedLoan(t, 1000)
	h.chain.FailNext(errors.New("gateway timeout"))
	assert.ErrorIs(t, h.invest(down.ID, 10), errs.ErrSettlement)
	h.assertLedger(t, down.ID, 0)
}

func TestGetAndListByInvestor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.approvedLoan(t, 1000)
	b := h.approvedLoan(t, 500)

	first, err := h.uc.Invest(ctx, InvestInput{LoanID: a.ID, InvestorID: investor, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = h.uc.Invest(ctx, InvestInput{LoanID: b.ID, InvestorID: investor, Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)
	_, err = h.uc.Invest(ctx, InvestInput{LoanID: b.ID, InvestorID: 99, Amount: decimal.NewFromInt(30)})
	require.NoError(t, err)

	got, err := h.uc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", got.Amount.String())
	assert.Equal(t, a.ID, got.LoanID)

	_, err = h.uc.Get(ctx, 12345)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	mine, err := h.uc.ListByInvestor(ctx, investor)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = h.uc.ListByLoan(ctx, 4040)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

type phaseFunc func(ctx context.Context, identifier string) (settlement.Phase, error)

func (f phaseFunc) Phase(ctx context.Context, identifier string) (settlement.Phase, error) {
	return f(ctx, identifier)
}

func funding(context.Context, string) (settlement.Phase, error) { return settlement.PhaseFunding, nil }

func TestInvest_RetriesStaleAmount(t *testing.T) {
	ident := "0xabc"
	stored := loan.Loan{
		ID: 3, StudentID: student, State: loan.StateApproved, Identifier: &ident,
		RequestedValue: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(100),
	}
	casCalls := 0
	loans := &loanmock.Repo{
		GetByIDFn: func(context.Context, uint64) (*loan.Loan, error) { l := stored; return &l, nil },
		GetByIDForUpdateFn: func(context.Context, uint64) (*loan.Loan, error) {
			l := stored
			return &l, nil
		},
		UpdateCurrentAmountFn: func(_ context.Context, _ uint64, from, to decimal.Decimal) error {
			casCalls++
			if casCalls == 1 {
				return loan.ErrStaleAmount
			}
			assert.Equal(t, "100", from.String())
			assert.Equal(t, "150", to.String())
			return nil
		},
	}
	var inserted []investment.Investment
	invs := &investmentmock.Repo{
		CreateFn: func(_ context.Context, i *investment.Investment) error {
			i.ID = 11
			inserted = append(inserted, *i)
			return nil
		},
	}
	uc := NewUsecase(loans, invs, uowmock.Passthrough(uow.Repos{Loans: loans, Investments: invs}),
		phaseFunc(funding), nil, zerolog.Nop())

	dto, err := uc.Invest(context.Background(), InvestInput{LoanID: 3, InvestorID: investor, Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), dto.ID)
	assert.Equal(t, 2, casCalls)
	assert.Len(t, inserted, 1, "a lost CAS must not insert")
}

func TestInvest_GivesUpAfterBoundedRetries(t *testing.T) {
	ident := "0xabc"
	stored := loan.Loan{
		ID: 3, StudentID: student, State: loan.StateApproved, Identifier: &ident,
		RequestedValue: decimal.NewFromInt(1000),
	}
	casCalls := 0
	loans := &loanmock.Repo{
		GetByIDFn:          func(context.Context, uint64) (*loan.Loan, error) { l := stored; return &l, nil },
		GetByIDForUpdateFn: func(context.Context, uint64) (*loan.Loan, error) { l := stored; return &l, nil },
		UpdateCurrentAmountFn: func(context.Context, uint64, decimal.Decimal, decimal.Decimal) error {
			casCalls++
			return loan.ErrStaleAmount
		},
	}
	invs := &investmentmock.Repo{}
	uc := NewUsecase(loans, invs, uowmock.Passthrough(uow.Repos{Loans: loans, Investments: invs}),
		phaseFunc(funding), nil, zerolog.Nop())

	_, err := uc.Invest(context.Background(), InvestInput{LoanID: 3, InvestorID: investor, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, maxCASAttempts, casCalls)
}
