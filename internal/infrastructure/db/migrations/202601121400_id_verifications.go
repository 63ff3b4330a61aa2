package migrations

import (
	"tuichain-backend/internal/domain/verification"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var _202601121400_id_verifications = &gormigrate.Migration{
	ID: "202601121400_id_verifications",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&verification.IDVerification{})
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(&verification.IDVerification{})
	},
}
