package loan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tuichain-backend/internal/domain/approval"
	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/lock"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/domain/uow"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	in.School = strings.TrimSpace(in.School)
	in.Course = strings.TrimSpace(in.Course)
	in.Destination = strings.TrimSpace(in.Destination)
	if err := u.validate.Struct(in); err != nil {
		return nil, invalid("%s", describe(err))
	}
	if !in.RequestedValue.IsPositive() || !in.RequestedValue.IsInteger() {
		return nil, invalid("requested_value must be a positive integer")
	}

	if u.requireVerification {
		if err := u.checkVerified(ctx, in.StudentID); err != nil {
			return nil, err
		}
	}

	// one open loan per student: serialize the check-then-insert per student
	release, err := u.locker.Acquire(ctx, fmt.Sprintf("loan:create:student:%d", in.StudentID), studentLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: another loan request is being created", errs.ErrConflict)
		}
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			u.log.Warn().Err(err).Uint64("student_id", in.StudentID).Msg("release student lock")
		}
	}()

	open, err := u.loans.GetOpenLoanByStudentID(ctx, in.StudentID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: student %d already has loan %d in state %s",
			errs.ErrConflict, in.StudentID, open.ID, open.State)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	l := &loan.Loan{
		StudentID:        in.StudentID,
		School:           in.School,
		Course:           in.Course,
		Destination:      in.Destination,
		Description:      in.Description,
		RequestedValue:   in.RequestedValue,
		CurrentAmount:    decimal.Zero,
		RecipientAddress: in.RecipientAddress,
		State:            loan.StatePending,
		StateUpdatedAt:   u.now().UTC(),
	}
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}

	u.emit(ctx, events.New(events.LoanCreated, l.ID, l.StudentID))
	return toDTO(l), nil
}

func (u *Usecase) checkVerified(ctx context.Context, userID uint64) error {
	v, err := u.verifications.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: identity not verified", errs.ErrForbidden)
	case err != nil:
		return err
	case !v.Validated:
		return fmt.Errorf("%w: identity not verified", errs.ErrForbidden)
	}
	return nil
}

// transition locks the loan, runs check, applies next and saves.
func (u *Usecase) transition(ctx context.Context, id uint64, next loan.State, check func(*loan.Loan) error) (*loan.Loan, error) {
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, id, func(r uow.Repos, l *loan.Loan) error {
		if check != nil {
			if err := check(l); err != nil {
				return err
			}
		}
		if err := l.Transition(next, u.now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, notFound(err, id)
	}
	return out, nil
}

// Withdraw lets the owning student pull a PENDING request.
func (u *Usecase) Withdraw(ctx context.Context, id, userID uint64) (*LoanDTO, error) {
	l, err := u.transition(ctx, id, loan.StateWithdrawn, func(l *loan.Loan) error {
		if l.StudentID != userID {
			return fmt.Errorf("%w: loan %d belongs to another student", errs.ErrForbidden, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.emit(ctx, events.New(events.LoanWithdrawn, l.ID, userID))
	return toDTO(l), nil
}

func (u *Usecase) Reject(ctx context.Context, id, adminID uint64) (*LoanDTO, error) {
	l, err := u.transition(ctx, id, loan.StateRejected, nil)
	if err != nil {
		return nil, err
	}
	u.emit(ctx, events.New(events.LoanRejected, l.ID, adminID))
	return toDTO(l), nil
}

type approvalParams struct {
	days       int
	fundingFee decimal.Decimal
	paymentFee decimal.Decimal
}

func parseApproval(in ValidateInput) (approvalParams, error) {
	var p approvalParams
	days, err := strconv.Atoi(strings.TrimSpace(in.ExpirationDays))
	if err != nil || days <= 0 {
		return p, invalid("days_to_expiration must be a positive integer")
	}
	p.days = days

	parseRate := func(name, raw string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || d.IsNegative() || !d.IsInteger() {
			return decimal.Zero, invalid("%s must be a non-negative integer", name)
		}
		return d, nil
	}
	if p.fundingFee, err = parseRate("funding_fee_atto_dai_per_dai", in.FundingFeeRate); err != nil {
		return p, err
	}
	if p.paymentFee, err = parseRate("payment_fee_atto_dai_per_dai", in.PaymentFeeRate); err != nil {
		return p, err
	}
	return p, nil
}

// Validate approves a PENDING loan by creating its on-chain counterpart.
//
// The loan is first claimed (PENDING -> CREATING) and the claim committed, so
// the settlement call runs without holding a row lock. On success the
// identifier is stored and the loan becomes APPROVED; on failure the claim is
// released and the loan is PENDING again, ready for a retry.
func (u *Usecase) Validate(ctx context.Context, in ValidateInput) (*LoanDTO, error) {
	p, err := parseApproval(in)
	if err != nil {
		return nil, err
	}

	claimed, err := u.transition(ctx, in.LoanID, loan.StateCreating, nil)
	if err != nil {
		return nil, err
	}

	handle, callErr := u.bridge.CreateOnChainLoan(ctx, settlement.CreateLoanParams{
		RecipientAddress: claimed.RecipientAddress,
		ExpirationPeriod: time.Duration(p.days) * 24 * time.Hour,
		FundingFeeRate:   p.fundingFee,
		PaymentFeeRate:   p.paymentFee,
		RequestedValue:   claimed.RequestedValue,
	})
	if callErr != nil {
		u.releaseClaim(context.WithoutCancel(ctx), in.LoanID)
		return nil, callErr
	}

	// the on-chain loan exists now; recording it must not depend on the caller
	rec := context.WithoutCancel(ctx)
	var approved *loan.Loan
	err = u.uow.WithinLoanTx(rec, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State == loan.StatePending {
			// the claim expired while the call was in flight; the on-chain
			// loan exists, so take the claim back
			if err := l.Transition(loan.StateCreating, u.now()); err != nil {
				return err
			}
		}
		if l.Identifier != nil {
			return fmt.Errorf("%w: loan %d already has identifier %s", errs.ErrInvalidState, l.ID, *l.Identifier)
		}
		if err := l.Transition(loan.StateApproved, u.now()); err != nil {
			return err
		}
		ident := handle.Identifier
		l.Identifier = &ident
		if err := r.Loans.Save(rec, l); err != nil {
			return err
		}
		if err := r.Approvals.Create(rec, &approval.Approval{
			LoanID:         l.ID,
			ValidatorID:    in.ValidatorID,
			ExpirationDays: p.days,
			FundingFeeRate: p.fundingFee,
			PaymentFeeRate: p.paymentFee,
			Identifier:     ident,
			ApprovedAt:     l.StateUpdatedAt,
		}); err != nil {
			return err
		}
		approved = l
		return nil
	})
	if err != nil {
		u.log.Error().Err(err).
			Uint64("loan_id", in.LoanID).
			Str("identifier", handle.Identifier).
			Msg("on-chain loan created but approval not recorded")
		return nil, notFound(err, in.LoanID)
	}

	u.emit(rec, events.New(events.LoanApproved, approved.ID, in.ValidatorID).
		With("identifier", handle.Identifier).
		With("token_address", handle.TokenAddress))

	dto := toDTO(approved)
	dto.TokenAddress = handle.TokenAddress
	return dto, nil
}

func (u *Usecase) releaseClaim(ctx context.Context, id uint64) {
	err := u.uow.WithinLoanTx(ctx, id, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StateCreating {
			return nil
		}
		if err := l.Transition(loan.StatePending, u.now()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		// the reconciler releases it once the claim TTL passes
		u.log.Error().Err(err).Uint64("loan_id", id).Msg("release settlement claim")
	}
}

func approvedIdentifier(l *loan.Loan) (string, error) {
	if l.State != loan.StateApproved || l.Identifier == nil {
		return "", fmt.Errorf("%w: loan %d is %s, not APPROVED", errs.ErrInvalidState, l.ID, l.State)
	}
	return *l.Identifier, nil
}

// Cancel asks the settlement backend to cancel an approved loan. The owner or
// an admin may request it; the local state does not change.
func (u *Usecase) Cancel(ctx context.Context, id, userID uint64, isAdmin bool) error {
	l, err := u.getLoan(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && l.StudentID != userID {
		return fmt.Errorf("%w: loan %d belongs to another student", errs.ErrForbidden, id)
	}
	ident, err := approvedIdentifier(l)
	if err != nil {
		return err
	}
	if err := u.bridge.CancelLoan(ctx, ident); err != nil {
		return err
	}
	u.emit(ctx, events.New(events.LoanCancelRequested, id, userID).With("identifier", ident))
	return nil
}

func (u *Usecase) Finalize(ctx context.Context, id, adminID uint64) error {
	l, err := u.getLoan(ctx, id)
	if err != nil {
		return err
	}
	ident, err := approvedIdentifier(l)
	if err != nil {
		return err
	}
	if err := u.bridge.FinalizeLoan(ctx, ident); err != nil {
		return err
	}
	u.emit(ctx, events.New(events.LoanFinalizeRequested, id, adminID).With("identifier", ident))
	return nil
}

// Delete removes a loan that never reached the settlement backend, together
// with its investments, documents and approval row.
func (u *Usecase) Delete(ctx context.Context, id, adminID uint64) error {
	err := u.uow.WithinLoanTx(ctx, id, func(r uow.Repos, l *loan.Loan) error {
		if l.State == loan.StateCreating || l.State == loan.StateApproved {
			return fmt.Errorf("%w: loan %d is %s and referenced by the settlement backend",
				errs.ErrInvalidState, id, l.State)
		}
		return r.Loans.Delete(ctx, id)
	})
	if err != nil {
		return notFound(err, id)
	}
	u.emit(ctx, events.New(events.LoanDeleted, id, adminID))
	return nil
}
