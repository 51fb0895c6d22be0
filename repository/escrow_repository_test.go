package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodian/domain/entities"
	"custodian/repository/testutil"
)

func TestEscrowRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	accountRepo := NewAccountRepository(testDB.DB)
	repo := NewEscrowRepository(testDB.DB)
	ctx := context.Background()

	_, err := accountRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)

	t.Run("no escrow for owner", func(t *testing.T) {
		escrow, err := repo.GetByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, escrow)
	})

	t.Run("round trip preserves the exact unlock price", func(t *testing.T) {
		escrow := testutil.CreateTestEscrow("alice", 600, "21.530000001")
		require.NoError(t, repo.Create(ctx, escrow))
		assert.False(t, escrow.CreatedAt.IsZero())

		byOwner, err := repo.GetByOwner(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, byOwner)
		assert.Equal(t, escrow.Address, byOwner.Address)
		assert.Equal(t, int64(600), byOwner.LockedAmount)
		assert.True(t, byOwner.UnlockPrice.Equal(escrow.UnlockPrice),
			"got %s, want %s", byOwner.UnlockPrice, escrow.UnlockPrice)

		byAddress, err := repo.GetByAddress(ctx, escrow.Address)
		require.NoError(t, err)
		require.NotNil(t, byAddress)
		assert.Equal(t, byOwner.Address, byAddress.Address)
	})

	t.Run("second escrow for the same owner is rejected", func(t *testing.T) {
		second := testutil.CreateTestEscrow("alice", 100, "50")
		err := repo.Create(ctx, second)
		assert.Error(t, err, "the address derivation and the unique owner constraint both forbid a second live escrow")
	})
}

func TestEscrowRepository_Delete(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	accountRepo := NewAccountRepository(testDB.DB)
	repo := NewEscrowRepository(testDB.DB)
	gameRepo := NewEscapeGameRepository(testDB.DB)
	requestRepo := NewVRFRequestRepository(testDB.DB)
	ctx := context.Background()

	_, err := accountRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)

	escrow := testutil.CreateTestEscrow("alice", 600, "21.53")
	require.NoError(t, repo.Create(ctx, escrow))

	game := testutil.CreateTestGame("alice", "seed")
	require.NoError(t, gameRepo.Create(ctx, game))

	request := entities.NewVRFRequest(game.Address, "seed")
	require.NoError(t, requestRepo.Create(ctx, request))

	t.Run("delete cascades to game and requests", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, escrow.Address))

		gone, err := repo.GetByAddress(ctx, escrow.Address)
		require.NoError(t, err)
		assert.Nil(t, gone)

		goneGame, err := gameRepo.GetByAddress(ctx, game.Address)
		require.NoError(t, err)
		assert.Nil(t, goneGame)

		goneRequest, err := requestRepo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Nil(t, goneRequest)
	})

	t.Run("deleting a missing escrow fails", func(t *testing.T) {
		err := repo.Delete(ctx, escrow.Address)
		assert.Error(t, err)
	})
}
