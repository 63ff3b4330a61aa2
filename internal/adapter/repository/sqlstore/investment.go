package sqlstore

import (
	"context"

	investmentDomain "tuichain-backend/internal/domain/investment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvestmentRepository struct{ db *gorm.DB }

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Create(ctx context.Context, i *investmentDomain.Investment) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id uint64) (*investmentDomain.Investment, error) {
	var out investmentDomain.Investment
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *InvestmentRepository) ListByInvestorID(ctx context.Context, investorID uint64) ([]investmentDomain.Investment, error) {
	var out []investmentDomain.Investment
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("investment_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]investmentDomain.Investment, error) {
	var out []investmentDomain.Investment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id").
		Find(&out).Error
	return out, err
}

// SumByLoanID adds the amounts in Go; SQL SUM goes through floating point on
// sqlite.
func (r *InvestmentRepository) SumByLoanID(ctx context.Context, loanID uint64) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&investmentDomain.Investment{}).
		Where("loan_id = ?", loanID).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}
