package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"custodian/domain/entities"
	"custodian/domain/events"
)

// EscrowService owns the deposit/withdraw instruction semantics
type EscrowService interface {
	// Deposit atomically creates and funds the owner's escrow
	Deposit(ctx context.Context, owner string, amount int64, unlockPrice decimal.Decimal) (*entities.Escrow, error)

	// Withdraw releases the escrow when the price condition or the escape
	// game's win/exhaustion condition holds, crediting the owner and deleting
	// the record in the same step. maxConfidence overrides the configured
	// confidence bound when non-nil.
	Withdraw(ctx context.Context, owner string, maxConfidence *decimal.Decimal) (*entities.WithdrawalResult, error)
}

// EscapeGameService owns the dice game instruction semantics
type EscapeGameService interface {
	// InitGame creates the game record for the owner's escrow, once
	InitGame(ctx context.Context, owner, clientSeed string) (*entities.EscapeGame, error)

	// RequestRoll funds the oracle fee and submits a randomness request;
	// dice fields are untouched until delivery
	RequestRoll(ctx context.Context, owner string) (*entities.VRFRequest, error)

	// ConsumeRandomness applies an oracle delivery to the outstanding request
	ConsumeRandomness(ctx context.Context, requestID uuid.UUID, randomness []byte) (*entities.EscapeGame, error)
}

// PriceFeed is the read-only boundary to the price oracle
type PriceFeed interface {
	// Current fetches the latest quote for the configured feed
	Current(ctx context.Context) (*entities.PriceQuote, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a unit of work and
// publishes them only after commit
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
