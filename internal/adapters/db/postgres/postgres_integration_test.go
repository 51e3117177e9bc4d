//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/migrate"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresAccountRepo_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("session_auth_test"),
		tcpostgres.WithUsername("auth"),
		tcpostgres.WithPassword("auth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Up(sqlDB))
	// second run is a no-op
	require.NoError(t, migrate.Up(sqlDB))
	// migrations hand their connection back and leave the pool open
	require.Zero(t, sqlDB.Stats().InUse)
	require.NoError(t, sqlDB.PingContext(ctx))

	repo := NewPostgresAccountRepo(db)

	acc, err := repo.CreateAccount(ctx, "e@example.com", "hash")
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, "e@example.com", "hash")
	require.True(t, customErrors.IsAlreadyExists(err))

	tok := "refresh"
	require.NoError(t, repo.UpdateRefreshToken(ctx, "e@example.com", &tok))
	got, err := repo.GetAccountByRefreshToken(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	require.NoError(t, repo.UpdateRefreshToken(ctx, "e@example.com", nil))
	_, err = repo.GetAccountByRefreshToken(ctx, tok)
	require.True(t, customErrors.IsNotFound(err))

	require.NoError(t, migrate.Down(sqlDB))
}
