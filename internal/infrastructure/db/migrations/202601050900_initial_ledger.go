package migrations

import (
	"tuichain-backend/internal/domain/approval"
	"tuichain-backend/internal/domain/document"
	"tuichain-backend/internal/domain/investment"
	"tuichain-backend/internal/domain/loan"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var _202601050900_initial_ledger = &gormigrate.Migration{
	ID: "202601050900_initial_ledger",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&loan.Loan{},
			&investment.Investment{},
			&document.Document{},
			&approval.Approval{},
		)
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(
			&approval.Approval{},
			&document.Document{},
			&investment.Investment{},
			&loan.Loan{},
		)
	},
}
