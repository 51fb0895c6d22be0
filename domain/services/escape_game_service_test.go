package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"custodian/config"
	"custodian/domain/entities"
	"custodian/domain/events"
	"custodian/domain/testhelpers"
)

type gameServiceMocks struct {
	accountRepo    *testhelpers.MockAccountRepository
	escrowRepo     *testhelpers.MockEscrowRepository
	gameRepo       *testhelpers.MockEscapeGameRepository
	vrfRequestRepo *testhelpers.MockVRFRequestRepository
	historyRepo    *testhelpers.MockBalanceHistoryRepository
	eventPublisher *testhelpers.MockEventPublisher
}

func newGameServiceMocks() *gameServiceMocks {
	return &gameServiceMocks{
		accountRepo:    new(testhelpers.MockAccountRepository),
		escrowRepo:     new(testhelpers.MockEscrowRepository),
		gameRepo:       new(testhelpers.MockEscapeGameRepository),
		vrfRequestRepo: new(testhelpers.MockVRFRequestRepository),
		historyRepo:    new(testhelpers.MockBalanceHistoryRepository),
		eventPublisher: new(testhelpers.MockEventPublisher),
	}
}

func (m *gameServiceMocks) service() *escapeGameService {
	return NewEscapeGameService(m.accountRepo, m.escrowRepo, m.gameRepo, m.vrfRequestRepo, m.historyRepo, m.eventPublisher).(*escapeGameService)
}

func (m *gameServiceMocks) assertExpectations(t *testing.T) {
	m.accountRepo.AssertExpectations(t)
	m.escrowRepo.AssertExpectations(t)
	m.gameRepo.AssertExpectations(t)
	m.vrfRequestRepo.AssertExpectations(t)
	m.historyRepo.AssertExpectations(t)
	m.eventPublisher.AssertExpectations(t)
}

func gameEscrow(owner string) *entities.Escrow {
	return &entities.Escrow{
		Address:      entities.DeriveEscrowAddress(owner),
		Owner:        owner,
		LockedAmount: 600,
		UnlockPrice:  decimal.RequireFromString("21.53"),
	}
}

func TestEscapeGameService_InitGame_Success(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	expectedAddress := entities.DeriveGameAddress("alice", escrow.Address, "seed")

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(nil, nil)
	m.gameRepo.On("Create", ctx, mock.MatchedBy(func(g *entities.EscapeGame) bool {
		return g.Address == expectedAddress &&
			g.Owner == "alice" &&
			g.EscrowAddress == escrow.Address &&
			g.ClientSeed == "seed" &&
			g.DieSides == 6 &&
			g.RollCount == 0 &&
			g.Die1 == 0 && g.Die2 == 0
	})).Return(nil)

	game, err := service.InitGame(ctx, "alice", "seed")

	require.NoError(t, err)
	assert.Equal(t, expectedAddress, game.Address)
	m.assertExpectations(t)
}

func TestEscapeGameService_InitGame_NoEscrow(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(nil, nil)

	_, err := service.InitGame(ctx, "alice", "seed")

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeEscrowNotFound))
	m.assertExpectations(t)
}

func TestEscapeGameService_InitGame_AlreadyInitialized(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	existing := entities.NewEscapeGame("alice", escrow.Address, "seed", 6)

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(existing, nil)

	_, err := service.InitGame(ctx, "alice", "another-seed")

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeGameAlreadyInitialized))
	m.assertExpectations(t)
}

func TestEscapeGameService_RequestRoll_Success(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	game := entities.NewEscapeGame("alice", escrow.Address, "seed", 6)

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(game, nil)
	m.vrfRequestRepo.On("GetPendingByGame", ctx, game.Address).Return(nil, nil)
	m.accountRepo.On("GetByOwner", ctx, "alice").Return(&entities.Account{Owner: "alice", Balance: 10}, nil)
	m.accountRepo.On("UpdateBalance", ctx, "alice", int64(8)).Return(nil)

	m.vrfRequestRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.VRFRequest) bool {
		return r.GameAddress == game.Address &&
			r.ClientSeed == "seed" &&
			r.Status == entities.RequestStatusPending
	})).Return(nil)

	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.Owner == "alice" &&
			h.BalanceBefore == 10 &&
			h.BalanceAfter == 8 &&
			h.ChangeAmount == -2 &&
			h.TransactionType == entities.TransactionTypeOracleFee
	})).Return(nil)

	m.eventPublisher.On("Publish", mock.MatchedBy(func(e events.BalanceChangeEvent) bool {
		return e.Owner == "alice" &&
			e.OldBalance == 10 &&
			e.NewBalance == 8 &&
			e.ChangeAmount == -2 &&
			e.TransactionType == entities.TransactionTypeOracleFee
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.MatchedBy(func(e events.RollRequestedEvent) bool {
		return e.GameAddress == game.Address &&
			e.Owner == "alice" &&
			e.ClientSeed == "seed" &&
			e.CallbackSubject == "custody.vrf.fulfillments" &&
			len(e.CallbackAccounts) == 3 &&
			e.CallbackAccounts[0] == escrow.Address &&
			e.CallbackAccounts[1] == game.Address
	})).Return(nil)

	request, err := service.RequestRoll(ctx, "alice")

	require.NoError(t, err)
	require.NotNil(t, request)
	assert.True(t, request.IsPending())
	assert.Equal(t, game.Address, request.GameAddress)

	// The request path must never touch the dice fields
	m.gameRepo.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestEscapeGameService_RequestRoll_GameNotInitialized(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(nil, nil)

	_, err := service.RequestRoll(ctx, "alice")

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeGameNotInitialized))
	m.assertExpectations(t)
}

func TestEscapeGameService_RequestRoll_GameAlreadyResolved(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	game := entities.NewEscapeGame("alice", escrow.Address, "seed", 6)
	game.RollCount, game.Die1, game.Die2 = 1, 5, 5

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(game, nil)

	_, err := service.RequestRoll(ctx, "alice")

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeGameAlreadyResolved))
	m.assertExpectations(t)
}

func TestEscapeGameService_RequestRoll_RollAlreadyPending(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	game := entities.NewEscapeGame("alice", escrow.Address, "seed", 6)
	pending := entities.NewVRFRequest(game.Address, "seed")

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(game, nil)
	m.vrfRequestRepo.On("GetPendingByGame", ctx, game.Address).Return(pending, nil)

	_, err := service.RequestRoll(ctx, "alice")

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeRollAlreadyPending))
	m.assertExpectations(t)
}

func TestEscapeGameService_RequestRoll_InsufficientFeeFunds(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	game := entities.NewEscapeGame("alice", escrow.Address, "seed", 6)

	m.escrowRepo.On("GetByOwner", ctx, "alice").Return(escrow, nil)
	m.gameRepo.On("GetByEscrow", ctx, escrow.Address).Return(game, nil)
	m.vrfRequestRepo.On("GetPendingByGame", ctx, game.Address).Return(nil, nil)
	m.accountRepo.On("GetByOwner", ctx, "alice").Return(&entities.Account{Owner: "alice", Balance: 1}, nil)

	_, err := service.RequestRoll(ctx, "alice")

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeInsufficientFeeFunds))
	m.assertExpectations(t)
}

func TestEscapeGameService_ConsumeRandomness_Success(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	escrow := gameEscrow("alice")
	game := entities.NewEscapeGame("alice", escrow.Address, "seed", 6)
	request := entities.NewVRFRequest(game.Address, "seed")

	// Bytes 9 and 15 reduce to faces 4 and 4
	randomness := []byte{9, 15, 77, 200}

	delivered := *game
	delivered.RollCount, delivered.Die1, delivered.Die2 = 1, 4, 4

	m.vrfRequestRepo.On("GetByID", ctx, request.ID).Return(request, nil)
	m.gameRepo.On("GetByAddress", ctx, game.Address).Return(game, nil)
	m.gameRepo.On("RecordDelivery", ctx, game.Address, uint8(4), uint8(4)).Return(&delivered, nil)
	m.vrfRequestRepo.On("MarkFulfilled", ctx, request.ID).Return(nil)

	m.eventPublisher.On("Publish", mock.MatchedBy(func(e events.DiceRolledEvent) bool {
		return e.GameAddress == game.Address &&
			e.Die1 == 4 && e.Die2 == 4 &&
			e.RollCount == 1 &&
			e.Doubles
	})).Return(nil)

	updated, err := service.ConsumeRandomness(ctx, request.ID, randomness)

	require.NoError(t, err)
	assert.Equal(t, uint8(4), updated.Die1)
	assert.Equal(t, uint8(4), updated.Die2)
	assert.Equal(t, 1, updated.RollCount)
	m.assertExpectations(t)
}

func TestEscapeGameService_ConsumeRandomness_UnknownRequest(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	id := uuid.New()
	m.vrfRequestRepo.On("GetByID", ctx, id).Return(nil, nil)

	_, err := service.ConsumeRandomness(ctx, id, []byte{1, 2})

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeStaleOrForeignRandomness))
	m.assertExpectations(t)
}

func TestEscapeGameService_ConsumeRandomness_AlreadyFulfilled(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	request := entities.NewVRFRequest("game-address", "seed")
	request.Status = entities.RequestStatusFulfilled

	m.vrfRequestRepo.On("GetByID", ctx, request.ID).Return(request, nil)

	_, err := service.ConsumeRandomness(ctx, request.ID, []byte{1, 2})

	require.Error(t, err)
	assert.True(t, entities.IsCode(err, entities.CodeStaleOrForeignRandomness),
		"a redelivered request must be rejected, not rolled twice")
	m.gameRepo.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestEscapeGameService_ConsumeRandomness_ZeroRandomness(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	m := newGameServiceMocks()
	service := m.service()

	request := entities.NewVRFRequest("game-address", "seed")
	m.vrfRequestRepo.On("GetByID", ctx, request.ID).Return(request, nil)

	for _, randomness := range [][]byte{nil, {}, {0, 0, 0, 0}} {
		_, err := service.ConsumeRandomness(ctx, request.ID, randomness)
		require.Error(t, err)
		assert.True(t, entities.IsCode(err, entities.CodeStaleOrForeignRandomness))
	}

	m.gameRepo.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}
