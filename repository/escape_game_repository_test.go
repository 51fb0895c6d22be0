package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodian/repository/testutil"
)

func TestEscapeGameRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	accountRepo := NewAccountRepository(testDB.DB)
	escrowRepo := NewEscrowRepository(testDB.DB)
	repo := NewEscapeGameRepository(testDB.DB)
	ctx := context.Background()

	_, err := accountRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)
	escrow := testutil.CreateTestEscrow("alice", 600, "21.53")
	require.NoError(t, escrowRepo.Create(ctx, escrow))

	t.Run("no game yet", func(t *testing.T) {
		game, err := repo.GetByEscrow(ctx, escrow.Address)
		require.NoError(t, err)
		assert.Nil(t, game)
	})

	t.Run("create and fetch", func(t *testing.T) {
		game := testutil.CreateTestGame("alice", "seed")
		require.NoError(t, repo.Create(ctx, game))

		fetched, err := repo.GetByEscrow(ctx, escrow.Address)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, game.Address, fetched.Address)
		assert.Equal(t, "seed", fetched.ClientSeed)
		assert.Equal(t, uint8(6), fetched.DieSides)
		assert.Equal(t, 0, fetched.RollCount)
		assert.Equal(t, uint8(0), fetched.Die1)
		assert.Equal(t, uint8(0), fetched.Die2)
		assert.Nil(t, fetched.LastUpdate, "an unrolled game has no update marker")
	})

	t.Run("second game for the same escrow is rejected", func(t *testing.T) {
		second := testutil.CreateTestGame("alice", "other-seed")
		err := repo.Create(ctx, second)
		assert.Error(t, err)
	})
}

func TestEscapeGameRepository_RecordDelivery(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	accountRepo := NewAccountRepository(testDB.DB)
	escrowRepo := NewEscrowRepository(testDB.DB)
	repo := NewEscapeGameRepository(testDB.DB)
	ctx := context.Background()

	_, err := accountRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)
	escrow := testutil.CreateTestEscrow("alice", 600, "21.53")
	require.NoError(t, escrowRepo.Create(ctx, escrow))
	game := testutil.CreateTestGame("alice", "seed")
	require.NoError(t, repo.Create(ctx, game))

	t.Run("first delivery", func(t *testing.T) {
		updated, err := repo.RecordDelivery(ctx, game.Address, 3, 5)
		require.NoError(t, err)

		assert.Equal(t, uint8(3), updated.Die1)
		assert.Equal(t, uint8(5), updated.Die2)
		assert.Equal(t, 1, updated.RollCount)
		require.NotNil(t, updated.LastUpdate)
	})

	t.Run("subsequent deliveries advance the count and marker", func(t *testing.T) {
		first, err := repo.GetByAddress(ctx, game.Address)
		require.NoError(t, err)

		updated, err := repo.RecordDelivery(ctx, game.Address, 4, 4)
		require.NoError(t, err)

		assert.Equal(t, uint8(4), updated.Die1)
		assert.Equal(t, uint8(4), updated.Die2)
		assert.Equal(t, 2, updated.RollCount)
		require.NotNil(t, updated.LastUpdate)
		assert.False(t, updated.LastUpdate.Before(*first.LastUpdate))
	})

	t.Run("delivery to a missing game fails", func(t *testing.T) {
		_, err := repo.RecordDelivery(ctx, "no-such-address", 1, 1)
		assert.Error(t, err)
	})
}
