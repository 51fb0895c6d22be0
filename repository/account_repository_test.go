package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodian/repository/testutil"
)

func TestAccountRepository_GetByOwner(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		account, err := repo.GetByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("account found", func(t *testing.T) {
		created, err := repo.Create(ctx, "alice", 1000)
		require.NoError(t, err)

		account, err := repo.GetByOwner(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "alice", account.Owner)
		assert.Equal(t, int64(1000), account.Balance)
		assert.Equal(t, created.CreatedAt, account.CreatedAt)
	})
}

func TestAccountRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		account, err := repo.Create(ctx, "bob", 500)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "bob", account.Owner)
		assert.Equal(t, int64(500), account.Balance)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("duplicate owner", func(t *testing.T) {
		_, err := repo.Create(ctx, "carol", 100)
		require.NoError(t, err)

		_, err = repo.Create(ctx, "carol", 200)
		assert.Error(t, err)
	})

	t.Run("negative balance rejected by schema", func(t *testing.T) {
		_, err := repo.Create(ctx, "dave", -1)
		assert.Error(t, err)
	})
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("updates existing account", func(t *testing.T) {
		_, err := repo.Create(ctx, "alice", 1000)
		require.NoError(t, err)

		require.NoError(t, repo.UpdateBalance(ctx, "alice", 400))

		account, err := repo.GetByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(400), account.Balance)
	})

	t.Run("missing account", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, "nobody", 400)
		assert.Error(t, err)
	})
}
