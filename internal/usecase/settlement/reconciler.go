package settlement

import (
	"context"
	"errors"
	"time"

	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/loan"
	domain "tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/domain/uow"

	"github.com/rs/zerolog"
)

// PhaseStore remembers the last external phase seen per loan, outside the
// ledger.
type PhaseStore interface {
	LastPhase(ctx context.Context, loanID uint64) (domain.Phase, bool, error)
	SetPhase(ctx context.Context, loanID uint64, p domain.Phase) error
}

type ReconcilerConfig struct {
	Interval time.Duration
	ClaimTTL time.Duration
}

// Reconciler periodically releases abandoned CREATING claims and reports
// phase changes of approved loans.
type Reconciler struct {
	loans  loan.Repository
	uow    uow.UnitOfWork
	bridge *Bridge
	phases PhaseStore
	events events.Publisher
	cfg    ReconcilerConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewReconciler(loans loan.Repository, tx uow.UnitOfWork, bridge *Bridge, phases PhaseStore,
	pub events.Publisher, cfg ReconcilerConfig, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		loans:  loans,
		uow:    tx,
		bridge: bridge,
		phases: phases,
		events: pub,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Run ticks until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Tick(ctx)
		}
	}
}

func (r *Reconciler) Tick(ctx context.Context) {
	if n, err := r.ReleaseStaleClaims(ctx); err != nil {
		r.log.Error().Err(err).Msg("release stale claims")
	} else if n > 0 {
		r.log.Warn().Int("released", n).Msg("released stale CREATING claims")
	}
	if _, err := r.SyncPhases(ctx); err != nil {
		r.log.Error().Err(err).Msg("sync phases")
	}
}

// ReleaseStaleClaims moves CREATING loans older than the claim TTL back to
// PENDING so the admin can validate them again.
func (r *Reconciler) ReleaseStaleClaims(ctx context.Context) (int, error) {
	stale, err := r.loans.ListCreatingBefore(ctx, r.now().Add(-r.cfg.ClaimTTL))
	if err != nil {
		return 0, err
	}
	released := 0
	for _, s := range stale {
		moved := false
		err := r.uow.WithinLoanTx(ctx, s.ID, func(repos uow.Repos, l *loan.Loan) error {
			if l.State != loan.StateCreating {
				return nil
			}
			if err := l.Transition(loan.StatePending, r.now()); err != nil {
				return err
			}
			moved = true
			return repos.Loans.Save(ctx, l)
		})
		if err != nil {
			return released, err
		}
		if !moved {
			continue
		}
		released++
		r.log.Warn().Uint64("loan_id", s.ID).Msg("settlement claim expired, loan back to PENDING")
	}
	return released, nil
}

// SyncPhases publishes loan.phase_changed for every approved loan whose
// external phase differs from the last one observed.
func (r *Reconciler) SyncPhases(ctx context.Context) (int, error) {
	approved, err := r.loans.List(ctx, loan.Filter{States: []loan.State{loan.StateApproved}})
	if err != nil {
		return 0, err
	}
	changed := 0
	var firstErr error
	for _, l := range approved {
		if l.Identifier == nil {
			continue
		}
		phase, err := r.bridge.Phase(ctx, *l.Identifier)
		if err != nil {
			r.log.Warn().Err(err).Uint64("loan_id", l.ID).Msg("read phase")
			firstErr = errors.Join(firstErr, err)
			continue
		}
		last, seen, err := r.phases.LastPhase(ctx, l.ID)
		if err != nil {
			return changed, err
		}
		if seen && last == phase {
			continue
		}
		if err := r.phases.SetPhase(ctx, l.ID, phase); err != nil {
			return changed, err
		}
		changed++
		if r.events == nil {
			continue
		}
		e := events.New(events.LoanPhaseChanged, l.ID, 0).With("phase", string(phase))
		if seen {
			e = e.With("previous_phase", string(last))
		}
		e.State = l.State.String()
		if err := r.events.Publish(ctx, e); err != nil {
			r.log.Warn().Err(err).Uint64("loan_id", l.ID).Msg("publish phase change")
		}
	}
	return changed, firstErr
}
