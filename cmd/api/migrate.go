package main

import (
	"github.com/spf13/cobra"

	"tuichain-backend/internal/infrastructure/db/migrations"
	"tuichain-backend/internal/logger"
)

func migrateCmd() *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gdb, err := openDB(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}

			log := logger.Component("migrate")
			if rollback {
				if err := migrations.RollbackLast(gdb); err != nil {
					return err
				}
				log.Info().Msg("rolled back last migration")
				return nil
			}
			if err := migrations.Migrate(gdb); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last applied migration")
	return cmd
}
