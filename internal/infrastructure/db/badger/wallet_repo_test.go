package badgerdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/arkade-os/l2wallet/internal/core/domain"
	badgerdb "github.com/arkade-os/l2wallet/internal/infrastructure/db/badger"
	"github.com/stretchr/testify/require"
)

func TestWalletRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("in memory", func(t *testing.T) {
		repo, err := badgerdb.NewWalletRepository("", nil)
		require.NoError(t, err)
		defer repo.Close()

		testWalletRepository(t, ctx, repo)
	})

	t.Run("persistent", func(t *testing.T) {
		dir := t.TempDir()

		repo, err := badgerdb.NewWalletRepository(dir, nil)
		require.NoError(t, err)
		testWalletRepository(t, ctx, repo)
		repo.Close()

		repo, err = badgerdb.NewWalletRepository(dir, nil)
		require.NoError(t, err)
		defer repo.Close()

		wallet, err := repo.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, wallet)
		require.Equal(t, "opaque", wallet.Layer2)
	})
}

func TestWalletRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo, err := badgerdb.NewWalletRepository("", nil)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Upsert(ctx, domain.Wallet{Layer2: "none", CreatedAt: 10, UpdatedAt: 10}))

	// The creation time of the stored wallet is kept.
	require.NoError(t, repo.Upsert(ctx, domain.Wallet{Layer2: "opaque", UpdatedAt: 20}))
	wallet, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Wallet{Layer2: "opaque", CreatedAt: 10, UpdatedAt: 20}, *wallet)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, repo.Upsert(canceled, domain.Wallet{Layer2: "none"}), context.Canceled)
	_, err = repo.Get(canceled)
	require.ErrorIs(t, err, context.Canceled)

	wallet, err = repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "opaque", wallet.Layer2)
}

func testWalletRepository(t *testing.T, ctx context.Context, repo domain.WalletRepository) {
	wallet, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, wallet)

	now := time.Now().Unix()
	expected := domain.Wallet{Layer2: "none", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Upsert(ctx, expected))

	wallet, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	require.Equal(t, expected, *wallet)

	expected.Layer2 = "opaque"
	expected.UpdatedAt = now + 10
	require.NoError(t, repo.Upsert(ctx, expected))

	wallet, err = repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, expected, *wallet)
}
