package approval

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table: loan_approvals. One row per approved loan, written in the same
// transaction that stores the settlement identifier.
type Approval struct {
	ID             uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	LoanID         uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_loan_approvals_loan"`
	ValidatorID    uint64          `gorm:"column:validator_id;not null"`
	ExpirationDays int             `gorm:"column:expiration_days;not null"`
	FundingFeeRate decimal.Decimal `gorm:"column:funding_fee_rate;type:decimal(65,0);not null"`
	PaymentFeeRate decimal.Decimal `gorm:"column:payment_fee_rate;type:decimal(65,0);not null"`
	Identifier     string          `gorm:"column:identifier;size:128;not null"`
	ApprovedAt     time.Time       `gorm:"column:approved_at;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Approval) TableName() string { return "loan_approvals" }
