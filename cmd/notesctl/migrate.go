package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/delivery-notes/internal/migrations"
	"github.com/JaimeStill/delivery-notes/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			db, err := database.New(&cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Ping(cmd.Context()); err != nil {
				return err
			}

			if err := migrations.Up(db.Connection(), db.Dialect(), logger); err != nil {
				printError(cmd.ErrOrStderr(), "migration failed: %v", err)
				return err
			}

			printSuccess(cmd.OutOrStdout(), "%s schema is up to date", db.Dialect())
			return nil
		},
	}
}
