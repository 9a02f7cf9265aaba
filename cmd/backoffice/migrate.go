package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	pgxadapter "github.com/cygnusgroup/backoffice/adapters/pgx"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		pool, err := pgxadapter.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pgxadapter.New(pool).Migrate(ctx); err != nil {
			return err
		}
		logger.Info("schema up to date")
		return nil
	},
}
