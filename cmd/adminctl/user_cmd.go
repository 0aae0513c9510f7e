package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adminpanel/adminpanel/internal/users"
)

func newUserCmd(rt *ctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var in users.CreateInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account, typically the first administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Name == "" || in.Email == "" || len(in.Password) < 8 {
				return fmt.Errorf("user create: --name, --email and a --password of at least 8 characters are required")
			}
			pool, err := rt.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			svc := users.NewService(users.NewRepository(pool), rt.cfg.DefaultRole)
			u, err := svc.Create(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("user create: %w", err)
			}
			rt.logger.Info("user created", slog.Int64("id", u.ID), slog.String("email", u.Email), slog.String("role", u.RoleName))
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "initial password")
	create.Flags().StringVar(&in.Role, "role", "", "role name, defaults to DEFAULT_ROLE")

	cmd.AddCommand(create)
	return cmd
}
