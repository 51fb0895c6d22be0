package testhelpers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"custodian/domain/entities"
	"custodian/domain/events"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByOwner(ctx context.Context, owner string) (*entities.Account, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, owner string, initialBalance int64) (*entities.Account, error) {
	args := m.Called(ctx, owner, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, owner string, newBalance int64) error {
	args := m.Called(ctx, owner, newBalance)
	return args.Error(0)
}

// MockEscrowRepository is a mock implementation of EscrowRepository
type MockEscrowRepository struct {
	mock.Mock
}

func (m *MockEscrowRepository) GetByOwner(ctx context.Context, owner string) (*entities.Escrow, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Escrow), args.Error(1)
}

func (m *MockEscrowRepository) GetByAddress(ctx context.Context, address string) (*entities.Escrow, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Escrow), args.Error(1)
}

func (m *MockEscrowRepository) Create(ctx context.Context, escrow *entities.Escrow) error {
	args := m.Called(ctx, escrow)
	return args.Error(0)
}

func (m *MockEscrowRepository) Delete(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

// MockEscapeGameRepository is a mock implementation of EscapeGameRepository
type MockEscapeGameRepository struct {
	mock.Mock
}

func (m *MockEscapeGameRepository) GetByAddress(ctx context.Context, address string) (*entities.EscapeGame, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscapeGame), args.Error(1)
}

func (m *MockEscapeGameRepository) GetByEscrow(ctx context.Context, escrowAddress string) (*entities.EscapeGame, error) {
	args := m.Called(ctx, escrowAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscapeGame), args.Error(1)
}

func (m *MockEscapeGameRepository) Create(ctx context.Context, game *entities.EscapeGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockEscapeGameRepository) RecordDelivery(ctx context.Context, address string, die1, die2 uint8) (*entities.EscapeGame, error) {
	args := m.Called(ctx, address, die1, die2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EscapeGame), args.Error(1)
}

// MockVRFRequestRepository is a mock implementation of VRFRequestRepository
type MockVRFRequestRepository struct {
	mock.Mock
}

func (m *MockVRFRequestRepository) Create(ctx context.Context, request *entities.VRFRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockVRFRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.VRFRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VRFRequest), args.Error(1)
}

func (m *MockVRFRequestRepository) GetPendingByGame(ctx context.Context, gameAddress string) (*entities.VRFRequest, error) {
	args := m.Called(ctx, gameAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VRFRequest), args.Error(1)
}

func (m *MockVRFRequestRepository) MarkFulfilled(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByOwner(ctx context.Context, owner string, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, owner, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockPriceFeed is a mock implementation of PriceFeed
type MockPriceFeed struct {
	mock.Mock
}

func (m *MockPriceFeed) Current(ctx context.Context) (*entities.PriceQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PriceQuote), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
