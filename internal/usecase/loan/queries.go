package loan

import (
	"context"
	"fmt"

	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/settlement"
)

func (u *Usecase) Get(ctx context.Context, id uint64) (*LoanDTO, error) {
	l, err := u.getLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.withOverlay(ctx, l)
}

func (u *Usecase) ListByStudent(ctx context.Context, studentID uint64) ([]LoanDTO, error) {
	ls, err := u.loans.List(ctx, loan.Filter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	return u.withOverlays(ctx, ls)
}

func (u *Usecase) ListAll(ctx context.Context) ([]LoanDTO, error) {
	ls, err := u.loans.List(ctx, loan.Filter{})
	if err != nil {
		return nil, err
	}
	return u.withOverlays(ctx, ls)
}

// ListOperating hides withdrawn and rejected requests as well as approved
// loans the settlement backend has canceled or let expire.
func (u *Usecase) ListOperating(ctx context.Context) ([]LoanDTO, error) {
	ls, err := u.loans.List(ctx, loan.Filter{States: loan.OpenStates()})
	if err != nil {
		return nil, err
	}
	all, err := u.withOverlays(ctx, ls)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if d.Phase != nil && !d.Phase.Operating() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// ListByState accepts either a local state name or a settlement phase name.
func (u *Usecase) ListByState(ctx context.Context, name string) ([]LoanDTO, error) {
	if st, ok := loan.ParseState(name); ok {
		ls, err := u.loans.List(ctx, loan.Filter{States: []loan.State{st}})
		if err != nil {
			return nil, err
		}
		return u.withOverlays(ctx, ls)
	}

	phase, ok := settlement.ParsePhase(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown state %q", errs.ErrNotFound, name)
	}
	ls, err := u.loans.List(ctx, loan.Filter{States: []loan.State{loan.StateApproved}})
	if err != nil {
		return nil, err
	}
	all, err := u.withOverlays(ctx, ls)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if d.Phase != nil && *d.Phase == phase {
			out = append(out, d)
		}
	}
	return out, nil
}
