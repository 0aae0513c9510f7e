package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adminpanel/adminpanel/internal/rbac"
	"github.com/adminpanel/adminpanel/internal/shared"
)

func newSeedCmd(rt *ctl) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the permission catalogue and the default roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := rt.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			seeder := rbac.NewSeeder(rbac.NewRepository(pool), rt.logger)
			if err := seeder.SeedDefaults(cmd.Context(), shared.AllPermissions(), shared.DefaultRoleGrants()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			rt.logger.Info("seed completed")
			return nil
		},
	}
}

func newGrantCmd(rt *ctl) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <role> <permission>...",
		Short: "Grant permissions to a role, creating either when missing",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := strings.TrimSpace(args[0])
			pool, err := rt.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			seeder := rbac.NewSeeder(rbac.NewRepository(pool), rt.logger)
			granted, err := seeder.GrantPermissions(cmd.Context(), role, args[1:]...)
			if err != nil {
				return fmt.Errorf("grant: %w", err)
			}
			rt.logger.Info("permissions granted", slog.String("role", granted.Name), slog.Any("permissions", granted.PermissionNames()))
			return nil
		},
	}
}
