package interfaces

import (
	"context"

	"github.com/google/uuid"

	"custodian/domain/entities"
)

// AccountRepository defines the interface for depositor balance data access
type AccountRepository interface {
	// GetByOwner retrieves an account by owner identity, nil if absent
	GetByOwner(ctx context.Context, owner string) (*entities.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, owner string, initialBalance int64) (*entities.Account, error)

	// UpdateBalance sets an account's balance
	UpdateBalance(ctx context.Context, owner string, newBalance int64) error
}

// EscrowRepository defines the interface for escrow record data access
type EscrowRepository interface {
	// GetByOwner retrieves the live escrow for an owner, nil if absent
	GetByOwner(ctx context.Context, owner string) (*entities.Escrow, error)

	// GetByAddress retrieves an escrow by its derived address, nil if absent
	GetByAddress(ctx context.Context, address string) (*entities.Escrow, error)

	// Create persists a new escrow record
	Create(ctx context.Context, escrow *entities.Escrow) error

	// Delete removes an escrow record; game and request rows bound to it are
	// reclaimed in the same statement via cascade
	Delete(ctx context.Context, address string) error
}

// EscapeGameRepository defines the interface for escape game data access
type EscapeGameRepository interface {
	// GetByAddress retrieves a game by its derived address, nil if absent
	GetByAddress(ctx context.Context, address string) (*entities.EscapeGame, error)

	// GetByEscrow retrieves the game bound to an escrow, nil if absent
	GetByEscrow(ctx context.Context, escrowAddress string) (*entities.EscapeGame, error)

	// Create persists a new game record
	Create(ctx context.Context, game *entities.EscapeGame) error

	// RecordDelivery applies one delivered roll: writes the dice, increments
	// the roll count and advances the update marker, returning the new state.
	// This is the only write path for the dice fields.
	RecordDelivery(ctx context.Context, address string, die1, die2 uint8) (*entities.EscapeGame, error)
}

// VRFRequestRepository defines the interface for randomness request tracking
type VRFRequestRepository interface {
	// Create persists a new pending request
	Create(ctx context.Context, request *entities.VRFRequest) error

	// GetByID retrieves a request by identity, nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*entities.VRFRequest, error)

	// GetPendingByGame retrieves the outstanding request for a game, nil if none
	GetPendingByGame(ctx context.Context, gameAddress string) (*entities.VRFRequest, error)

	// MarkFulfilled transitions a pending request to fulfilled
	MarkFulfilled(ctx context.Context, id uuid.UUID) error
}

// BalanceHistoryRepository defines the interface for the balance audit trail
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByOwner returns balance history for an owner, newest first
	GetByOwner(ctx context.Context, owner string, limit int) ([]*entities.BalanceHistory, error)
}
