package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/lock"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/domain/uow"
	"tuichain-backend/internal/domain/verification"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Bridge is the part of the settlement bridge the loan lifecycle needs.
type Bridge interface {
	CreateOnChainLoan(ctx context.Context, p settlement.CreateLoanParams) (*settlement.LoanHandle, error)
	Overlay(ctx context.Context, identifier string) (*settlement.Overlay, error)
	CancelLoan(ctx context.Context, identifier string) error
	FinalizeLoan(ctx context.Context, identifier string) error
	SellPositions(ctx context.Context, identifier string) ([]settlement.SellPosition, error)
	BuildLoanTransactions(ctx context.Context, identifier string, req settlement.LoanTxRequest) ([]settlement.Transaction, error)
	BuildMarketTransactions(ctx context.Context, identifier string, req settlement.MarketTxRequest) ([]settlement.Transaction, error)
}

type Deps struct {
	Loans  loan.Repository
	UoW    uow.UnitOfWork
	Bridge Bridge
	Locker lock.Locker
	Events events.Publisher
	Log    zerolog.Logger

	// Verifications is consulted on create when RequireVerification is set.
	Verifications       verification.Repository
	RequireVerification bool
}

type Usecase struct {
	loans               loan.Repository
	uow                 uow.UnitOfWork
	bridge              Bridge
	locker              lock.Locker
	events              events.Publisher
	log                 zerolog.Logger
	verifications       verification.Repository
	requireVerification bool
	validate            *validator.Validate
	now                 func() time.Time
}

const studentLockTTL = 15 * time.Second

func NewUsecase(d Deps) *Usecase {
	return &Usecase{
		loans:               d.Loans,
		uow:                 d.UoW,
		bridge:              d.Bridge,
		locker:              d.Locker,
		events:              d.Events,
		log:                 d.Log,
		verifications:       d.Verifications,
		requireVerification: d.RequireVerification,
		validate:            validator.New(),
		now:                 time.Now,
	}
}

func (u *Usecase) emit(ctx context.Context, e events.Event) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn().Err(err).Str("event", string(e.Type)).Uint64("loan_id", e.LoanID).Msg("publish event")
	}
}

func notFound(err error, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: loan %d", errs.ErrNotFound, id)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrValidation, fmt.Sprintf(format, args...))
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, strings.ToLower(fe.Field())+" "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

func (u *Usecase) getLoan(ctx context.Context, id uint64) (*loan.Loan, error) {
	l, err := u.loans.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return l, nil
}

// withOverlay merges the live settlement fields into an approved loan.
func (u *Usecase) withOverlay(ctx context.Context, l *loan.Loan) (*LoanDTO, error) {
	dto := toDTO(l)
	if l.State != loan.StateApproved || l.Identifier == nil {
		return dto, nil
	}
	ov, err := u.bridge.Overlay(ctx, *l.Identifier)
	if err != nil {
		return nil, err
	}
	dto.apply(ov)
	return dto, nil
}

func (u *Usecase) withOverlays(ctx context.Context, ls []loan.Loan) ([]LoanDTO, error) {
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		dto, err := u.withOverlay(ctx, &ls[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}
