package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-rbac/internal/auth"
	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
)

func newHashPasswordCmd() *cobra.Command {
	var (
		password string
		cost     int
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print the bcrypt hash of a password read from --password or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			if len(secret) < auth.MinPasswordLength || len(secret) > auth.MaxPasswordLength {
				return fmt.Errorf("password must be %d-%d bytes", auth.MinPasswordLength, auth.MaxPasswordLength)
			}
			hash, err := auth.NewBcryptHasher(cost).Hash(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password to hash (read from stdin when empty)")
	cmd.Flags().IntVar(&cost, "cost", auth.DefaultBcryptCost, "bcrypt cost")
	return cmd
}

func newUserCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}
	cmd.AddCommand(newUserCreateCmd(opts))
	return cmd
}

func newUserCreateCmd(opts *globalOptions) *cobra.Command {
	var (
		email      string
		password   string
		adminEmail string
		cost       int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a login account directly in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("admin-email") {
				if v := os.Getenv("ADMIN_EMAIL"); v != "" {
					adminEmail = v
				}
			}
			ctx := commandContext(cmd)
			pool, err := db.New(ctx, opts.dsn, db.PoolConfig{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := auth.NewService(auth.NewRepository(pool), auth.ServiceConfig{
				AdminEmail: adminEmail,
				Hasher:     auth.NewBcryptHasher(cost),
			})
			user, err := svc.CreateUser(ctx, email, secret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when empty)")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@rbac.it", "primary admin email, reserved (env: ADMIN_EMAIL)")
	cmd.Flags().IntVar(&cost, "cost", auth.DefaultBcryptCost, "bcrypt cost")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
