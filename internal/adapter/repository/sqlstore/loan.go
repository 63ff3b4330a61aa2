package sqlstore

import (
	"context"
	"time"

	approvalDomain "tuichain-backend/internal/domain/approval"
	documentDomain "tuichain-backend/internal/domain/document"
	investmentDomain "tuichain-backend/internal/domain/investment"
	loanDomain "tuichain-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetOpenLoanByStudentID(ctx context.Context, studentID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("student_id = ? AND state IN ?", studentID, loanDomain.OpenStates()).
		Order("request_date DESC, id DESC").
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.Filter) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if len(f.States) > 0 {
		q = q.Where("state IN ?", f.States)
	}
	var out []loanDomain.Loan
	err := q.Order("request_date DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListCreatingBefore(ctx context.Context, before time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("state = ? AND state_updated_at < ?", loanDomain.StateCreating, before.UTC()).
		Order("id").
		Find(&out).Error
	return out, err
}

// UpdateCurrentAmount swaps current_amount from -> to, failing with
// ErrStaleAmount when another writer got there first.
func (r *LoanRepository) UpdateCurrentAmount(ctx context.Context, id uint64, from, to decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND current_amount = ?", id, from).
		Updates(map[string]any{"current_amount": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrStaleAmount
	}
	return nil
}

// Delete removes the loan together with everything it owns. Callers run it
// inside a unit of work so the cascade is atomic.
func (r *LoanRepository) Delete(ctx context.Context, id uint64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("loan_id = ?", id).Delete(&investmentDomain.Investment{}).Error; err != nil {
		return err
	}
	if err := db.Where("loan_id = ?", id).Delete(&documentDomain.Document{}).Error; err != nil {
		return err
	}
	if err := db.Where("loan_id = ?", id).Delete(&approvalDomain.Approval{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&loanDomain.Loan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
