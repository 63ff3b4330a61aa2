package dbtest

import (
	"testing"

	dbinfra "tuichain-backend/internal/infrastructure/db"
	"tuichain-backend/internal/infrastructure/db/migrations"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates an in-memory sqlite DB with every migration applied. A single
// connection keeps all queries on the same in-memory database and serializes
// transactions the way row locks would.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(dbinfra.SQLite(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrations.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
