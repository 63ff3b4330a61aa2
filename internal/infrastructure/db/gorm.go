package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver     string
	DSN        string
	LogQueries bool
	Log        zerolog.Logger
}

// Dialector picks the gorm dialector for a driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql", "":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return SQLite(dsn), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func OpenGorm(o Options) (*gorm.DB, error) {
	dial, err := Dialector(o.Driver, o.DSN)
	if err != nil {
		return nil, err
	}
	level := logger.Warn
	if o.LogQueries {
		level = logger.Info
	}
	gdb, err := OpenGormWithDialector(dial, &gorm.Config{
		Logger: logger.New(printer{o.Log}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	if o.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, _ := gdb.DB()
		sqlDB.SetMaxOpenConns(1)
	}
	o.Log.Info().Str("driver", gdb.Dialector.Name()).Msg("gorm: connected")
	return gdb, nil
}

// OpenGormWithDialector opens gdb with pool settings and checks the
// connection.
func OpenGormWithDialector(dial gorm.Dialector, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	gdb, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return gdb, nil
}

// printer routes gorm's log lines into zerolog.
type printer struct{ log zerolog.Logger }

func (p printer) Printf(format string, args ...any) {
	p.log.Info().Str("component", "gorm").Msgf(format, args...)
}
