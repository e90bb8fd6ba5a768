// Package dbtest connects integration tests to the PostgreSQL database named
// by RBAC_TEST_PG_DSN.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
)

// EnvDSN names the variable that enables database tests.
const EnvDSN = "RBAC_TEST_PG_DSN"

// migrateLockID serializes migrations when several test binaries start at once.
const migrateLockID = 7262616

// New returns a migrated pool and empties tables. The test is skipped when
// EnvDSN is unset.
func New(t *testing.T, tables ...string) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skip(EnvDSN + " not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.New(ctx, dsn, db.PoolConfig{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrateLockID)
	require.NoError(t, err)
	migrateErr := db.RunMigrations(ctx, db.OpenSQL(pool))
	_, err = conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, migrateLockID)
	conn.Release()
	require.NoError(t, migrateErr)
	require.NoError(t, err)

	if len(tables) > 0 {
		_, err = pool.Exec(ctx, `TRUNCATE `+strings.Join(tables, ", "))
		require.NoError(t, err)
	}
	return pool
}
