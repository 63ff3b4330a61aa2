package investment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/investment"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/domain/uow"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PhaseReader reads the external phase of an approved loan.
type PhaseReader interface {
	Phase(ctx context.Context, identifier string) (settlement.Phase, error)
}

// maxCASAttempts bounds the optimistic retries of a single investment.
const maxCASAttempts = 5

type Usecase struct {
	loans       loan.Repository
	investments investment.Repository
	uow         uow.UnitOfWork
	phases      PhaseReader
	events      events.Publisher
	log         zerolog.Logger
	validate    *validator.Validate
}

func NewUsecase(loans loan.Repository, investments investment.Repository, u uow.UnitOfWork,
	phases PhaseReader, pub events.Publisher, log zerolog.Logger) *Usecase {
	return &Usecase{
		loans:       loans,
		investments: investments,
		uow:         u,
		phases:      phases,
		events:      pub,
		log:         log,
		validate:    validator.New(),
	}
}

// Invest records a funding contribution and advances the loan's
// current_amount in the same transaction, under the loan row lock.
func (u *Usecase) Invest(ctx context.Context, in InvestInput) (*InvestmentDTO, error) {
	if err := u.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: loan and investor are required", errs.ErrValidation)
	}
	if !in.Amount.IsPositive() || !in.Amount.IsInteger() {
		return nil, fmt.Errorf("%w: amount must be a positive integer", errs.ErrValidation)
	}

	l, err := u.loans.GetByID(ctx, in.LoanID)
	if err != nil {
		return nil, loanNotFound(err, in.LoanID)
	}
	if l.StudentID == in.InvestorID {
		return nil, fmt.Errorf("%w: students cannot fund their own loan", errs.ErrForbidden)
	}
	if l.State != loan.StateApproved || l.Identifier == nil {
		return nil, fmt.Errorf("%w: loan %d is %s, not APPROVED", errs.ErrInvalidState, l.ID, l.State)
	}
	// settlement calls never run under the row lock
	phase, err := u.phases.Phase(ctx, *l.Identifier)
	if err != nil {
		return nil, err
	}
	if phase != settlement.PhaseFunding {
		return nil, fmt.Errorf("%w: loan %d is %s, not FUNDING", errs.ErrInvalidState, l.ID, phase)
	}

	var created *investment.Investment
	for attempt := 1; ; attempt++ {
		created, err = u.record(ctx, in)
		if !errors.Is(err, loan.ErrStaleAmount) || attempt == maxCASAttempts {
			break
		}
		u.log.Debug().Uint64("loan_id", in.LoanID).Int("attempt", attempt).Msg("current_amount moved, retrying")
	}
	if err != nil {
		if errors.Is(err, loan.ErrStaleAmount) {
			return nil, fmt.Errorf("%w: loan %d is being funded concurrently, try again", errs.ErrConflict, in.LoanID)
		}
		return nil, loanNotFound(err, in.LoanID)
	}

	if u.events != nil {
		e := events.New(events.InvestmentCreated, in.LoanID, in.InvestorID).
			With("investment_id", strconv.FormatUint(created.ID, 10)).
			With("amount", created.Amount.String())
		if err := u.events.Publish(ctx, e); err != nil {
			u.log.Warn().Err(err).Uint64("loan_id", in.LoanID).Msg("publish event")
		}
	}
	dto := toDTO(created)
	return &dto, nil
}

func (u *Usecase) record(ctx context.Context, in InvestInput) (*investment.Investment, error) {
	var created *investment.Investment
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateApproved {
			return fmt.Errorf("%w: loan %d is %s, not APPROVED", errs.ErrInvalidState, l.ID, l.State)
		}
		next := l.CurrentAmount.Add(in.Amount)
		if next.GreaterThan(l.RequestedValue) {
			return fmt.Errorf("%w: %s + %s exceeds requested value %s",
				errs.ErrCapacity, l.CurrentAmount, in.Amount, l.RequestedValue)
		}
		if err := r.Loans.UpdateCurrentAmount(ctx, l.ID, l.CurrentAmount, next); err != nil {
			return err
		}
		inv := &investment.Investment{
			InvestorID: in.InvestorID,
			LoanID:     l.ID,
			Amount:     in.Amount,
		}
		if err := r.Investments.Create(ctx, inv); err != nil {
			return err
		}
		created = inv
		return nil
	})
	return created, err
}

func loanNotFound(err error, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: loan %d", errs.ErrNotFound, id)
	}
	return err
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*InvestmentDTO, error) {
	i, err := u.investments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: investment %d", errs.ErrNotFound, id)
		}
		return nil, err
	}
	dto := toDTO(i)
	return &dto, nil
}

func (u *Usecase) ListByInvestor(ctx context.Context, investorID uint64) ([]InvestmentDTO, error) {
	is, err := u.investments.ListByInvestorID(ctx, investorID)
	if err != nil {
		return nil, err
	}
	return toDTOs(is), nil
}

func (u *Usecase) ListByLoan(ctx context.Context, loanID uint64) ([]InvestmentDTO, error) {
	if _, err := u.loans.GetByID(ctx, loanID); err != nil {
		return nil, loanNotFound(err, loanID)
	}
	is, err := u.investments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTOs(is), nil
}
