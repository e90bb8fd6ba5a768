package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
)

var migrateActions = map[string]func(context.Context, *sql.DB) error{
	"up":     db.RunMigrations,
	"down":   db.RollbackMigration,
	"status": db.MigrationStatus,
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|status>",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := migrateActions[args[0]]
			if !ok {
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
			ctx := commandContext(cmd)
			pool, err := db.New(ctx, opts.dsn, db.PoolConfig{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()
			sqlDB := db.OpenSQL(pool)
			defer sqlDB.Close()
			if err := action(ctx, sqlDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", args[0])
			return nil
		},
	}
}
