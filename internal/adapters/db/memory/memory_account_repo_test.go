package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/stretchr/testify/require"
)

func TestMemoryAccountRepo_CreateAndGet(t *testing.T) {
	repo := NewMemoryAccountRepo()
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, "e@example.com", "hash")
	require.NoError(t, err)

	got, err := repo.GetAccountByEmail(ctx, "e@example.com")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	_, err = repo.CreateAccount(ctx, "e@example.com", "hash")
	require.True(t, customErrors.IsAlreadyExists(err))

	_, err = repo.GetAccountByEmail(ctx, "other@example.com")
	require.True(t, customErrors.IsNotFound(err))
}

func TestMemoryAccountRepo_RefreshToken(t *testing.T) {
	repo := NewMemoryAccountRepo()
	ctx := context.Background()
	_, err := repo.CreateAccount(ctx, "e@example.com", "hash")
	require.NoError(t, err)

	tok := "t1"
	require.NoError(t, repo.UpdateRefreshToken(ctx, "e@example.com", &tok))
	// the caller's variable must not alias the stored token
	tok = "mutated"
	got, err := repo.GetAccountByRefreshToken(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "t1", *got.RefreshToken)

	next := "t2"
	require.NoError(t, repo.UpdateRefreshToken(ctx, "e@example.com", &next))
	_, err = repo.GetAccountByRefreshToken(ctx, "t1")
	require.True(t, customErrors.IsNotFound(err))

	require.NoError(t, repo.UpdateRefreshToken(ctx, "e@example.com", nil))
	_, err = repo.GetAccountByRefreshToken(ctx, "t2")
	require.True(t, customErrors.IsNotFound(err))

	_, err = repo.GetAccountByRefreshToken(ctx, "")
	require.True(t, customErrors.IsNotFound(err))

	require.True(t, customErrors.IsNotFound(repo.UpdateRefreshToken(ctx, "ghost@example.com", nil)))
}

func TestMemoryAccountRepo_Concurrent(t *testing.T) {
	repo := NewMemoryAccountRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("u%d@example.com", i%4)
			_, _ = repo.CreateAccount(ctx, email, "h")
			tok := fmt.Sprintf("tok-%d", i)
			_ = repo.UpdateRefreshToken(ctx, email, &tok)
			_, _ = repo.GetAccountByRefreshToken(ctx, tok)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		acc, err := repo.GetAccountByEmail(ctx, fmt.Sprintf("u%d@example.com", i))
		require.NoError(t, err)
		require.NotNil(t, acc.RefreshToken)
		owner, err := repo.GetAccountByRefreshToken(ctx, *acc.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, acc.Email, owner.Email)
	}
	require.Len(t, repo.byRefresh, 4)
}
