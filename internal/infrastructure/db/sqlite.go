package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

// sqliteDialector keeps decimal columns as text. SQLite gives decimal(65,0)
// NUMERIC affinity, which rounds atto amounts above 2^53 through a double.
type sqliteDialector struct {
	*sqlite.Dialector
}

// SQLite opens dsn with money columns stored as their exact decimal string.
func SQLite(dsn string) gorm.Dialector {
	return sqliteDialector{&sqlite.Dialector{DSN: dsn}}
}

func (d sqliteDialector) DataTypeOf(field *schema.Field) string {
	if strings.HasPrefix(strings.ToLower(string(field.DataType)), "decimal") {
		return "text"
	}
	return d.Dialector.DataTypeOf(field)
}

// Migrator is rebuilt so table creation sees the overridden DataTypeOf.
func (d sqliteDialector) Migrator(db *gorm.DB) gorm.Migrator {
	return sqlite.Migrator{Migrator: migrator.Migrator{Config: migrator.Config{
		DB:                          db,
		Dialector:                   d,
		CreateIndexAfterCreateTable: true,
	}}}
}
