package investment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment is an append-only funding contribution. Rows are never updated.
type Investment struct {
	ID             uint64          `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	InvestorID     uint64          `gorm:"column:investor_id;not null;index" json:"investor_id"`
	LoanID         uint64          `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(65,0);not null" json:"amount"`
	InvestmentDate time.Time       `gorm:"column:investment_date;autoCreateTime;<-:create" json:"investment_date"`
}

func (Investment) TableName() string { return "investments" }
