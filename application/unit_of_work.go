package application

import (
	"context"

	"custodian/domain/interfaces"
)

// UnitOfWork defines the interface for one atomic instruction step: every
// repository it hands out runs inside the same database transaction, and the
// event bus buffers until Commit. Rolling back discards both.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	EscrowRepository() interfaces.EscrowRepository
	EscapeGameRepository() interfaces.EscapeGameRepository
	VRFRequestRepository() interfaces.VRFRequestRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork for one instruction
	Create() UnitOfWork
}
