package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func all() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		_202601050900_initial_ledger,
		_202601121400_id_verifications,
	}
}

// Migrate applies every pending migration in order.
func Migrate(gormDB *gorm.DB) error {
	return gormigrate.New(gormDB, gormigrate.DefaultOptions, all()).Migrate()
}

// RollbackLast undoes the most recently applied migration.
func RollbackLast(gormDB *gorm.DB) error {
	return gormigrate.New(gormDB, gormigrate.DefaultOptions, all()).RollbackLast()
}
