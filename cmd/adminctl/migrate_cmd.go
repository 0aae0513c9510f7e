package main

import (
	"github.com/spf13/cobra"

	"github.com/adminpanel/adminpanel/internal/platform/db"
)

func newMigrateCmd(rt *ctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				pool, err := rt.pool(cmd.Context())
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := db.Migrate(cmd.Context(), pool); err != nil {
					return err
				}
				rt.logger.Info("migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				pool, err := rt.pool(cmd.Context())
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := db.MigrateDown(cmd.Context(), pool); err != nil {
					return err
				}
				rt.logger.Info("migration rolled back")
				return nil
			},
		},
	)
	return cmd
}
