package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodian/domain/entities"
	"custodian/repository/testutil"
)

func setupGameFixture(t *testing.T, testDB *testutil.TestDatabase) *entities.EscapeGame {
	t.Helper()
	ctx := context.Background()

	_, err := NewAccountRepository(testDB.DB).Create(ctx, "alice", 1000)
	require.NoError(t, err)
	escrow := testutil.CreateTestEscrow("alice", 600, "21.53")
	require.NoError(t, NewEscrowRepository(testDB.DB).Create(ctx, escrow))
	game := testutil.CreateTestGame("alice", "seed")
	require.NoError(t, NewEscapeGameRepository(testDB.DB).Create(ctx, game))
	return game
}

func TestVRFRequestRepository_PendingLifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewVRFRequestRepository(testDB.DB)
	ctx := context.Background()
	game := setupGameFixture(t, testDB)

	t.Run("no pending request yet", func(t *testing.T) {
		pending, err := repo.GetPendingByGame(ctx, game.Address)
		require.NoError(t, err)
		assert.Nil(t, pending)
	})

	request := entities.NewVRFRequest(game.Address, "seed")

	t.Run("create and fetch pending", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, request))
		assert.False(t, request.CreatedAt.IsZero())

		pending, err := repo.GetPendingByGame(ctx, game.Address)
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, request.ID, pending.ID)
		assert.True(t, pending.IsPending())
		assert.Nil(t, pending.FulfilledAt)
	})

	t.Run("a second pending request for the same game is rejected", func(t *testing.T) {
		second := entities.NewVRFRequest(game.Address, "seed")
		err := repo.Create(ctx, second)
		assert.Error(t, err, "the partial unique index allows one outstanding request per game")
	})

	t.Run("mark fulfilled", func(t *testing.T) {
		require.NoError(t, repo.MarkFulfilled(ctx, request.ID))

		fulfilled, err := repo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		require.NotNil(t, fulfilled)
		assert.False(t, fulfilled.IsPending())
		assert.NotNil(t, fulfilled.FulfilledAt)

		pending, err := repo.GetPendingByGame(ctx, game.Address)
		require.NoError(t, err)
		assert.Nil(t, pending)
	})

	t.Run("marking twice fails", func(t *testing.T) {
		err := repo.MarkFulfilled(ctx, request.ID)
		assert.Error(t, err, "a fulfilled request must not be fulfillable again")
	})

	t.Run("a new request is allowed once the previous one settled", func(t *testing.T) {
		next := entities.NewVRFRequest(game.Address, "seed")
		require.NoError(t, repo.Create(ctx, next))
	})
}

func TestVRFRequestRepository_GetByID_Missing(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewVRFRequestRepository(testDB.DB)

	request, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, request)
}
